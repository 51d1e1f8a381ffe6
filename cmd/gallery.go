package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect and edit the gallery of known faces",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled people",
	RunE:  runGalleryList,
}

var galleryRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove every face enrolled under a name",
	Long: `Remove every gallery entry of a person. The name is matched exactly first,
then ignoring case, diacritics, dashes and underscores ("jan_novak" removes "Jan Novák").`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryRemove,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryRemoveCmd)

	galleryListCmd.Flags().Bool("json", false, "Output as JSON")
}

type galleryPerson struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	counts := make(map[string]int)
	if a.pool != nil {
		if counts, err = postgres.NewGalleryRepository(a.pool).CountByName(ctx); err != nil {
			return err
		}
	} else {
		for _, name := range a.gallery.Names() {
			counts[name] = a.gallery.Count(name)
		}
	}

	people := make([]galleryPerson, 0, len(counts))
	for _, name := range a.gallery.Names() {
		people = append(people, galleryPerson{Name: name, Entries: counts[name]})
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(people)
	}

	if len(people) == 0 {
		fmt.Printf("No faces enrolled (%s).\n", a.backend())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFACES")
	fmt.Fprintln(w, "----\t-----")
	for _, p := range people {
		fmt.Fprintf(w, "%s\t%d\n", p.Name, p.Entries)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d people, %d faces (%s)\n", len(people), a.gallery.Len(), a.backend())
	return nil
}

func runGalleryRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	name, ok := a.gallery.Resolve(args[0])
	if !ok {
		return fmt.Errorf("no one named %q is enrolled", args[0])
	}
	removed, err := a.gallery.Remove(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %s (%d faces)\n", name, removed)
	return nil
}
