package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Face recognition attendance tracking",
	Long: `Face Attendance recognizes enrolled people in a stream of frames, records
when each person was first and last seen, and counts how many people are in view.

Faces are detected by an external detection/embedding service (EMBEDDING_URL).
The gallery of known faces is kept in a local file, or in PostgreSQL when
DATABASE_URL is set.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("strategy", "", "Matching strategy (histogram, dlib, insightface); defaults to FACE_STRATEGY")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
