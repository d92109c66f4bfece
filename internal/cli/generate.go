package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/pwa"
)

// stdoutPath writes a generated file to standard output.
const stdoutPath = "-"

type generateOptions struct {
	appFile    string
	workerFile string
	out        string
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate app files locally from YAML descriptions",
		Long: "Generate manifest.json, sw.js, index.html or a zip bundle from an app\n" +
			"description (--app) and service worker options (--worker). Both files are\n" +
			"YAML using the same snake_case keys as the JSON API; omitted keys take\n" +
			"their defaults.",
	}
	cmd.PersistentFlags().StringVar(&opts.appFile, "app", "", "app description YAML")
	cmd.PersistentFlags().StringVar(&opts.workerFile, "worker", "", "service worker options YAML")
	cmd.PersistentFlags().StringVarP(&opts.out, "out", "o", ".", `output directory, or "-" for stdout`)

	cmd.AddCommand(
		newGenerateFileCommand(opts, "manifest", "Generate manifest.json", pwa.BundleManifest,
			func(cfg pwa.Config, _ pwa.WorkerOptions) ([]byte, error) { return pwa.GenerateManifest(cfg) }),
		newGenerateFileCommand(opts, "sw", "Generate the service worker", pwa.BundleWorker,
			func(_ pwa.Config, w pwa.WorkerOptions) ([]byte, error) { return pwa.GenerateServiceWorker(w) }),
		newGenerateFileCommand(opts, "html", "Generate the bootstrap index.html", pwa.BundleIndex,
			func(cfg pwa.Config, _ pwa.WorkerOptions) ([]byte, error) { return pwa.GenerateIndexHTML(cfg) }),
		newGenerateFileCommand(opts, "bundle", "Generate a zip with every file", "",
			func(cfg pwa.Config, w pwa.WorkerOptions) ([]byte, error) {
				var buf bytes.Buffer
				if err := pwa.WriteBundle(&buf, cfg, w); err != nil {
					return nil, err
				}
				return buf.Bytes(), nil
			}),
		newCheckCommand(opts),
	)
	return cmd
}

type renderFunc func(pwa.Config, pwa.WorkerOptions) ([]byte, error)

func newGenerateFileCommand(opts *generateOptions, use, short, fileName string, render renderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, worker, err := opts.load()
			if err != nil {
				return err
			}
			data, err := render(cfg, worker)
			if err != nil {
				return err
			}
			name := fileName
			if name == "" {
				name = pwa.BundleFileName(cfg.Name)
			}
			return writeOutput(cmd, opts.out, name, data)
		},
	}
}

func newCheckCommand(opts *generateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report installability warnings for the app description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.decode()
			if err != nil {
				return err
			}
			warnings := pwa.Check(cfg)
			if len(warnings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no warnings")
				return nil
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %-12s %s\n", w.Severity, w.Field, w.Message)
			}
			return nil
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// load decodes the app and worker files and rejects values the HTTP API
// would reject, such as a short name over 12 characters or an unknown
// display mode.
func (o *generateOptions) load() (pwa.Config, pwa.WorkerOptions, error) {
	cfg, worker, err := o.decode()
	if err != nil {
		return cfg, worker, err
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, worker, invalidFile("app description", o.appFile, err)
	}
	if err := validate.Struct(worker); err != nil {
		return cfg, worker, invalidFile("worker options", o.workerFile, err)
	}
	return cfg, worker, nil
}

// decode reads the app and worker YAML files over their defaults. The
// worker app name defaults to the app name.
func (o *generateOptions) decode() (pwa.Config, pwa.WorkerOptions, error) {
	cfg := pwa.DefaultConfig()
	if err := decodeYAMLFile(o.appFile, &cfg); err != nil {
		return cfg, pwa.WorkerOptions{}, err
	}
	worker := pwa.DefaultWorkerOptions()
	if err := decodeYAMLFile(o.workerFile, &worker); err != nil {
		return cfg, worker, err
	}
	if worker.AppName == "" {
		worker.AppName = cfg.Name
	}
	return cfg, worker, nil
}

func invalidFile(what, path string, err error) error {
	if path == "" {
		path = "defaults"
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid %s %s: %w", what, path, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		problems = append(problems, fmt.Sprintf("%s fails %s", fe.Namespace(), rule))
	}
	return fmt.Errorf("invalid %s %s: %s", what, path, strings.Join(problems, "; "))
}

func decodeYAMLFile(path string, out any) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeOutput(cmd *cobra.Command, out, name string, data []byte) error {
	if out == stdoutPath {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(out, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cmd.PrintErrln("wrote", path)
	return nil
}
