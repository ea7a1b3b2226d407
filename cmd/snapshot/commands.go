package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/snapshot/snapshot"
	"github.com/Neumenon/snapshot/stream"
)

func (a *app) newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Serialize JSON, YAML or TOML input",
		Long: `Serialize structured input as canonical snapshot text.

The format is taken from --format, or from the file extension
(.json, .yaml, .yml, .toml, optionally followed by .zst).
With --name the output is a snapshot document holding one block.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return a.runDump(cmd, path)
		},
	}
	cmd.Flags().String("format", formatAuto, "input format: auto, json, yaml or toml")
	cmd.Flags().Bool("ordered", false, "keep mapping order of the input (json, yaml)")
	cmd.Flags().String("name", "", "wrap the output into a document block with this name")
	return cmd
}

func (a *app) runDump(cmd *cobra.Command, path string) error {
	opts, err := a.serializerOptions()
	if err != nil {
		return err
	}

	format := strings.ToLower(a.v.GetString("format"))
	if format == "" || format == formatAuto {
		format = detectFormat(path)
	}

	in, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	value, err := decodeInput(in, format, a.v.GetBool("ordered"))
	if err != nil {
		return err
	}
	a.logger.Debug("input decoded", zap.String("path", path), zap.String("format", format))

	body := snapshot.SerializeWithOptions(value, opts)
	out := cmd.OutOrStdout()

	name := a.v.GetString("name")
	if name == "" {
		_, err := fmt.Fprintln(out, body)
		return err
	}
	return stream.WriteAll(out, formatVersion, []*stream.Block{{Name: name, Body: body}})
}

func (a *app) newBlocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocks <file>",
		Short: "List the blocks of a snapshot document with their digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return writeBlockList(cmd.OutOrStdout(), doc)
		},
	}
}

func writeBlockList(w io.Writer, doc *stream.Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range doc.Blocks {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", b.Name, b.Digest()[:16], strings.Count(b.Body, "\n")+1)
	}
	return tw.Flush()
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file> <name>",
		Short: "Print the body of one block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			b, ok := doc.Find(args[1])
			if !ok {
				return errors.Newf("no block named %q in %s", args[1], args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), b.Body)
			return err
		},
	}
}

func (a *app) readDocument(cmd *cobra.Command, path string) (*stream.Document, error) {
	in, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	defer in.Close()

	doc, err := stream.ReadAll(in)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	a.logger.Debug("document read",
		zap.String("path", path), zap.String("serializer", doc.Serializer), zap.Int("blocks", len(doc.Blocks)))
	return doc, nil
}
