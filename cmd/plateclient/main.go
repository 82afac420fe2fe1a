// Command plateclient uploads a sample image to a locally running recognition
// service and prints what it found.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/MateuszOrski/ProjektParking/internal/client"
)

const (
	url           = "http://localhost:8000/predict"
	imageFilename = "Cars201.png"
)

var errImageMissing = errors.New("image file not found")

func main() {
	c, err := client.NewClient(url, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Stdout, c, imageFilename); err != nil {
		os.Exit(1)
	}
}

// run returns an error only so main can pick the exit code; everything the
// user needs has already been printed to out.
func run(ctx context.Context, out io.Writer, c *client.Client, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "ERROR: file '%s' not found in the current directory!\n", filename)
			return errImageMissing
		}
		fmt.Fprintf(out, "ERROR: cannot open '%s': %v\n", filename, err)
		return err
	}
	defer f.Close()

	fmt.Fprintf(out, "Sending file: %s...\n", filename)
	resp, err := c.Predict(ctx, filename, f)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(out, "Server error (code %d):\n%s\n", statusErr.StatusCode, statusErr.Body)
			return err
		}
		fmt.Fprintf(out, "Connection error: %v\n", err)
		fmt.Fprintln(out, "Is the recognition service running?")
		return err
	}

	pretty, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "format response")
	}
	fmt.Fprintln(out, "SUCCESS! Result from the service:")
	fmt.Fprintln(out, string(pretty))
	return nil
}
