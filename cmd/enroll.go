package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kozaktomas/face-attendance/internal/pipeline"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [image]",
	Short: "Add a person's face to the gallery",
	Long: `Enroll the first face found in an image under the given name. A crop of the
face is saved to the known faces directory (KNOWN_FACES_DIR).

With --dir, every image in the directory is enrolled under the name encoded in
its file name: "alice.jpg" enrolls "alice", "Jan_Novak_20240301090000.jpg"
enrolls "Jan Novak".

Examples:
  face-attendance enroll photo.jpg --name "Jan Novák"
  face-attendance enroll --dir ./known_faces`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Name of the person in the image")
	enrollCmd.Flags().String("dir", "", "Enroll every image in this directory")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	dir := mustGetString(cmd, "dir")

	if dir == "" && len(args) == 0 {
		return errors.New("an image or --dir is required")
	}
	if dir != "" && len(args) > 0 {
		return errors.New("use either an image or --dir, not both")
	}
	if dir == "" && name == "" {
		return errors.New("--name is required when enrolling a single image")
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	proc, err := a.processor(cmd, false, nil)
	if err != nil {
		return err
	}

	if dir != "" {
		return enrollDir(ctx, proc, dir)
	}
	return enrollImage(ctx, proc, args[0], name)
}

func enrollImage(ctx context.Context, proc *pipeline.Processor, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	res, err := proc.EnrollImage(ctx, data, name)
	if errors.Is(err, pipeline.ErrNoFaceDetected) {
		return fmt.Errorf("no face detected in %s", filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("failed to enroll %s: %w", name, err)
	}

	fmt.Printf("Enrolled %s (score %.2f, %d faces in gallery)\n", res.Name, res.Score, res.Entries)
	if res.CropPath != "" {
		fmt.Printf("Saved face crop to %s\n", res.CropPath)
	}
	return nil
}

func enrollDir(ctx context.Context, proc *pipeline.Processor, dir string) error {
	res, err := proc.EnrollDir(ctx, dir, true)
	if err != nil {
		return fmt.Errorf("failed to enroll directory: %w", err)
	}

	fmt.Printf("\nEnrolled %d images, %d failed\n", res.Enrolled, len(res.Failed))
	if len(res.Failed) > 0 {
		paths := make([]string, 0, len(res.Failed))
		for path := range res.Failed {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			fmt.Printf("  %s: %v\n", filepath.Base(path), res.Failed[path])
		}
	}
	fmt.Printf("Gallery: %d faces of %d people\n", proc.Gallery().Len(), len(proc.Gallery().Names()))
	return nil
}
