package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/provide-io/furnace/go/furnace/internal/session"
	"github.com/provide-io/furnace/go/furnace/pkg/tables"
	"github.com/spf13/cobra"
)

func (e *env) assembler() *tables.Assembler {
	emitter := tables.NewEmitter(e.cfg.TotalDir, e.cfg.FilePerms, e.logger)
	return tables.NewAssembler(e.cfg.Matchers, e.cfg.Labels, emitter, e.logger)
}

func (e *env) loadState() (*session.State, error) {
	return session.Load(e.cfg.SessionPath(), e.cfg.LoadAddress, e.cfg.MotorHex)
}

func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect <static|action|dynamic|monitoring> [path]",
		Short: "Collect one sub-table into the session",
		Long: `Collects a sub-table into the session kept in the total output directory.
static and monitoring take a single .bin file, action and dynamic take a
folder that is searched recursively. Without a path nothing is collected.`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgs: []string{
			tables.CategoryStatic.String(),
			tables.CategoryAction.String(),
			tables.CategoryDynamic.String(),
			tables.CategoryMonitoring.String(),
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, ok := tables.ParseCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown table %q", args[0])
			}
			var path string
			if len(args) == 2 {
				path = args[1]
			}

			e, err := setup("collect")
			if err != nil {
				return err
			}
			st, err := e.loadState()
			if err != nil {
				return err
			}

			next, artifact, err := e.assembler().Collect(st.Session, cat, path)
			if err != nil {
				return err
			}
			st.Session = next
			st.Record(artifact)
			if err := session.Save(e.cfg.SessionPath(), st); err != nil {
				return err
			}

			if path != "" {
				t := next.Table(cat)
				successColor.Printf("✅ %s table collected\n", cat)
				fmt.Printf("   bytes: %d\n   field: %s\n", t.Length, t.EncodedLengthHex)
			}
			notifyArtifact(artifact)
			return nil
		},
	}
}

type emitFunc func(*tables.Assembler, tables.Session) (*tables.Artifact, error)

func emitHeader(a *tables.Assembler, s tables.Session) (*tables.Artifact, error) {
	return a.EmitHeader(s)
}

func emitTotal(a *tables.Assembler, s tables.Session) (*tables.Artifact, error) {
	return a.EmitTotalTable(s)
}

func emitFinal(a *tables.Assembler, s tables.Session) (*tables.Artifact, error) {
	return a.EmitFinal(s)
}

func newEmitCmd(use, short string, emit emitFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(use)
			if err != nil {
				return err
			}
			st, err := e.loadState()
			if err != nil {
				return err
			}
			artifact, err := emit(e.assembler(), st.Session)
			if err != nil {
				return err
			}
			st.Record(artifact)
			if err := session.Save(e.cfg.SessionPath(), st); err != nil {
				return err
			}
			notifyArtifact(artifact)
			return nil
		},
	}
}

func newAssembleCmd() *cobra.Command {
	var (
		paths [4]string
		emit  []string
	)
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Collect all sub-tables and write the images in one run",
		Long: `Runs every step of the assembly on a fresh session without touching the
stored session: collects the given sub-tables in table order and writes the
requested images.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup("assemble")
			if err != nil {
				return err
			}
			s, err := tables.NewSession(e.cfg.LoadAddress, e.cfg.MotorHex)
			if err != nil {
				return err
			}

			a := e.assembler()
			for _, cat := range tables.Categories {
				var artifact *tables.Artifact
				if s, artifact, err = a.Collect(s, cat, paths[cat]); err != nil {
					return err
				}
				notifyArtifact(artifact)
			}

			emitters := map[string]emitFunc{"header": emitHeader, "total": emitTotal, "final": emitFinal}
			for _, name := range emit {
				fn, ok := emitters[strings.TrimSpace(name)]
				if !ok {
					return fmt.Errorf("unknown image %q (want header, total or final)", name)
				}
				artifact, err := fn(a, s)
				if err != nil {
					return err
				}
				notifyArtifact(artifact)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&paths[tables.CategoryStatic], "static", "", "Static table .bin file")
	cmd.Flags().StringVar(&paths[tables.CategoryAction], "action", "", "Action table folder")
	cmd.Flags().StringVar(&paths[tables.CategoryDynamic], "dynamic", "", "Dynamic table folder")
	cmd.Flags().StringVar(&paths[tables.CategoryMonitoring], "monitoring", "", "Monitoring table .bin file")
	cmd.Flags().StringSliceVar(&emit, "emit", []string{"final"}, "Images to write: header, total, final")
	return cmd
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the stored assembly session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print collected lengths and encoded header fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup("session")
			if err != nil {
				return err
			}
			st, err := e.loadState()
			if err != nil {
				return err
			}
			s := st.Session
			fmt.Printf("load address: 0x%08X\nmotor:        %s\n", s.LoadAddress, s.MotorHex)
			for _, cat := range tables.Categories {
				t := s.Table(cat)
				state := "not collected"
				if t.Collected {
					state = fmt.Sprintf("%d bytes from %d file(s)", t.Length, len(t.Sources))
				}
				fmt.Printf("%-11s %-26s %s\n", cat.String()+":", state, t.EncodedLengthHex)
			}
			total, err := tables.EncodeTotalLength(s.TotalLength())
			if err != nil {
				return err
			}
			fmt.Printf("%-11s %-26s %s\n", "total:", fmt.Sprintf("%d bytes", s.TotalLength()), total)
			for _, a := range st.Artifacts {
				fmt.Printf("artifact:   %s (0x%02X)\n", a.Path, a.Checksum)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup("session")
			if err != nil {
				return err
			}
			if err := session.Reset(e.cfg.SessionPath()); err != nil {
				return err
			}
			e.logger.Info("🧹 Session reset", "path", e.cfg.SessionPath())
			return nil
		},
	})
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <image.bin>",
		Short: "Check a header+3×total image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup("verify")
			if err != nil {
				return err
			}
			r, err := tables.VerifyFile(args[0], e.logger)
			if err != nil {
				return err
			}
			successColor.Println("✅ Image verified")
			fmt.Fprintf(os.Stdout, "   load address: 0x%08X\n", r.LoadAddress)
			for i, l := range r.Lengths {
				fmt.Fprintf(os.Stdout, "   %-11s %d bytes\n", tables.Categories[i].String()+":", l)
			}
			fmt.Fprintf(os.Stdout, "   total:       %d bytes\n   checksum:    0x%02X\n", r.TotalLength, r.Checksum)
			return nil
		},
	}
}
