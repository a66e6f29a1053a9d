package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ievidence "sosfetch/core/internal/evidence"
	"sosfetch/evidence"
)

type verifyResult struct {
	ArchivePath string `json:"archive_path" yaml:"archive_path"`
	RemotePath  string `json:"remote_path" yaml:"remote_path"`
	Host        string `json:"host" yaml:"host"`
	SizeBytes   int64  `json:"size_bytes" yaml:"size_bytes"`
	SHA256      string `json:"sha256" yaml:"sha256"`
	OK          bool   `json:"ok" yaml:"ok"`
}

func NewVerifyCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Recompute the SHA-256 of a fetched archive and compare it with its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			m, err := ievidence.ReadManifest(args[0])
			if err != nil {
				return fmt.Errorf("reading manifest: %w", err)
			}
			sum, size, err := evidence.SHA256File(args[0])
			if err != nil {
				return err
			}
			res := verifyResult{
				ArchivePath: args[0],
				RemotePath:  m.RemotePath,
				Host:        m.Host,
				SizeBytes:   size,
				SHA256:      sum,
				OK:          sum == m.SHA256 && size == m.SizeBytes,
			}
			if err := printResult(cmd.OutOrStdout(), format, res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("checksum mismatch: manifest %s (%d bytes), file %s (%d bytes)", m.SHA256, m.SizeBytes, sum, size)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format (json|yaml)")
	return cmd
}
