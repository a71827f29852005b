package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Enroll everyone from a directory of photos",
	Long: `Bulk enrollment from a directory. Each image file must be named
<id>_<name>.<ext>; underscores in the name become spaces, so
E001_Jane_Doe.jpg enrolls "Jane Doe" with id E001.

Every file goes through the normal enrollment checks. Failures are
reported at the end and do not stop the import.

Examples:
  face-attendance import ./staff-photos
  face-attendance import --concurrency 8 ./staff-photos
  face-attendance import --dry-run ./staff-photos`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", constants.WorkerPoolSize, "Number of parallel workers")
	importCmd.Flags().Float64("threshold", 0, "Duplicate-face distance threshold (0 = configured default)")
	importCmd.Flags().Bool("dry-run", false, "List what would be enrolled without enrolling")
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// enrollmentFile is one image found by import.
type enrollmentFile struct {
	Path string
	ID   string
	Name string
}

// parseEnrollmentFileName splits "<id>_<name>.<ext>" into id and name.
func parseEnrollmentFileName(fileName string) (id, name string, ok bool) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !slices.Contains(imageExtensions, ext) {
		return "", "", false
	}
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	id, rest, found := strings.Cut(base, "_")
	if !found {
		return "", "", false
	}
	id = strings.TrimSpace(id)
	name = strings.Join(strings.Fields(strings.ReplaceAll(rest, "_", " ")), " ")
	if id == "" || name == "" {
		return "", "", false
	}
	return id, name, true
}

// collectEnrollmentFiles lists the importable images in dir, sorted by file name,
// and the names of files that were skipped.
func collectEnrollmentFiles(dir string) ([]enrollmentFile, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []enrollmentFile
	var skipped []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		id, name, ok := parseEnrollmentFileName(entry.Name())
		if !ok {
			skipped = append(skipped, entry.Name())
			continue
		}
		files = append(files, enrollmentFile{Path: filepath.Join(dir, entry.Name()), ID: id, Name: name})
	}
	return files, skipped, nil
}

type importFailure struct {
	file enrollmentFile
	err  error
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency := max(mustGetInt(cmd, "concurrency"), 1)
	threshold := mustGetFloat64(cmd, "threshold")

	files, skipped, err := collectEnrollmentFiles(args[0])
	if err != nil {
		return err
	}
	for _, name := range skipped {
		fmt.Printf("Skipping %s (expected <id>_<name>.<ext>)\n", name)
	}
	if len(files) == 0 {
		fmt.Println("No images to import")
		return nil
	}

	if mustGetBool(cmd, "dry-run") {
		for _, f := range files {
			fmt.Printf("Would enroll %s (%s) from %s\n", f.Name, f.ID, filepath.Base(f.Path))
		}
		return nil
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var enrolled int
	var failures []importFailure
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		go func(f enrollmentFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			err := importOne(ctx, a.engine, f, threshold)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, importFailure{file: f, err: err})
				return
			}
			enrolled++
		}(file)
	}

	wg.Wait()
	fmt.Println()

	fmt.Printf("\nCompleted: %d enrolled, %d failed\n", enrolled, len(failures))
	slices.SortFunc(failures, func(x, y importFailure) int { return strings.Compare(x.file.Path, y.file.Path) })
	for _, f := range failures {
		fmt.Printf("  %s [%s]: %v\n", filepath.Base(f.file.Path), attendance.Code(f.err), f.err)
	}
	return nil
}

func importOne(ctx context.Context, engine *attendance.Engine, f enrollmentFile, threshold float64) error {
	image, err := readImageFile(f.Path)
	if err != nil {
		return err
	}
	_, err = engine.Enroll(ctx, attendance.EnrollRequest{
		Name:      f.Name,
		ID:        f.ID,
		Image:     image,
		Threshold: threshold,
	})
	return err
}
