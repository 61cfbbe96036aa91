package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/SyedDaiam9101/enhance-service/internal/app"
	"github.com/SyedDaiam9101/enhance-service/internal/config"
	"github.com/SyedDaiam9101/enhance-service/internal/handler"
	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
	"github.com/SyedDaiam9101/enhance-service/internal/perf"
	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

// NewCommand creates the enhance command tree.
//
// Commands provided:
//   - enhance process <image>... [--out-dir DIR] [--jobs N]
//   - enhance bench <image> [--runs N]
//   - enhance remote <image> [--addr HOST:PORT] [--out FILE]
//
// Global flags: --config, --variant, --mock, --json, --verbose
func NewCommand() *cobra.Command {
	var (
		configFile string
		variant    string
		useMock    bool
		jsonOutput bool
		verbose    bool
	)

	// Processor is created in PersistentPreRunE for the local commands
	var proc *pipeline.Processor

	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Enhance images with an ONNX model",
		Long:  "Run the model-backed enhancement pipeline on local images, with a deterministic fallback when no model is available.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "remote" {
				return nil
			}

			overrides := map[string]interface{}{}
			if variant != "" {
				overrides["variant"] = variant
			}
			if useMock {
				overrides["use_mock_inference"] = true
			}

			var cfg *config.Config
			var err error
			if configFile != "" {
				cfg, err = config.LoadWithConfigFile(configFile, overrides)
			} else {
				cfg, err = config.Load(overrides)
			}
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			out := io.Discard
			if verbose {
				out = cmd.ErrOrStderr()
			}
			proc, err = app.NewProcessor(cfg, log.New(out, "", log.LstdFlags))
			if err != nil {
				return fmt.Errorf("failed to initialize processor: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if proc == nil {
				return nil
			}
			return proc.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&variant, "variant", "", "Model variant: resnet, deblur or micronet")
	cmd.PersistentFlags().BoolVar(&useMock, "mock", false, "Use mock inference engine")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(processCmd(&proc, &jsonOutput))
	cmd.AddCommand(benchCmd(&proc, &jsonOutput))
	cmd.AddCommand(remoteCmd())

	return cmd
}

// fileResult is one processed file.
type fileResult struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Path        string `json:"path"`
	InferenceMs int64  `json:"inference_ms"`
}

func processCmd(proc **pipeline.Processor, jsonOutput *bool) *cobra.Command {
	var (
		outDir string
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "process <image>...",
		Short: "Enhance image files",
		Long:  "Enhance each image and write the result as PNG into the output directory.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
			}
			outputs, err := outputPaths(args, outDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			var mu sync.Mutex
			results := make([]fileResult, 0, len(args))

			g, ctx := errgroup.WithContext(ctx)
			g.SetLimit(jobs)
			for i, in := range args {
				i, in := i, in // per-iteration copies (go directive is 1.21)
				g.Go(func() error {
					res, err := processFile(ctx, *proc, in, outputs[i])
					if err != nil {
						return fmt.Errorf("%s: %w", in, err)
					}
					mu.Lock()
					results = append(results, res)
					mu.Unlock()
					return nil
				})
			}
			err = g.Wait()

			if werr := outputResults(cmd.OutOrStdout(), results, *jsonOutput); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "enhanced", "Directory for output images")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Maximum images processed at once")
	return cmd
}

// outputPaths maps each input to <outDir>/<base>.png and rejects inputs that
// would write the same file.
func outputPaths(inputs []string, outDir string) ([]string, error) {
	outputs := make([]string, len(inputs))
	owner := make(map[string]string, len(inputs))
	for i, in := range inputs {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		out := filepath.Join(outDir, base+".png")
		if prev, ok := owner[out]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s", prev, in, out)
		}
		owner[out] = in
		outputs[i] = out
	}
	return outputs, nil
}

func processFile(ctx context.Context, proc *pipeline.Processor, in, out string) (fileResult, error) {
	src, err := readImage(in)
	if err != nil {
		return fileResult{}, err
	}

	res := proc.Process(ctx, src)
	if !res.OK() {
		return fileResult{}, res.Err()
	}

	png, err := imaging.EncodePNG(res.Success.Image)
	if err != nil {
		return fileResult{}, err
	}

	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fileResult{}, fmt.Errorf("failed to write output: %w", err)
	}

	return fileResult{
		Input:       in,
		Output:      out,
		Width:       res.Success.Image.Width(),
		Height:      res.Success.Image.Height(),
		Path:        string(res.Success.Path),
		InferenceMs: res.Success.InferenceTime.Milliseconds(),
	}, nil
}

func readImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	src, _, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &pipeline.Error{Kind: pipeline.InvalidInput, Op: "decode image", Err: err}
	}
	return src, nil
}

func outputResults(w io.Writer, results []fileResult, jsonOutput bool) error {
	sort.Slice(results, func(i, j int) bool { return results[i].Input < results[j].Input })

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tOUTPUT\tSIZE\tPATH\tINFERENCE")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%dms\n", r.Input, r.Output, r.Width, r.Height, r.Path, r.InferenceMs)
	}
	return tw.Flush()
}

// benchResult summarizes a bench run.
type benchResult struct {
	Input         string  `json:"input"`
	Runs          int     `json:"runs"`
	Fallbacks     int     `json:"fallbacks"`
	FPS           float64 `json:"fps"`
	MemoryUsageMB float64 `json:"memory_usage_mb"`
}

func benchCmd(proc **pipeline.Processor, jsonOutput *bool) *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "bench <image>",
		Short: "Measure pipeline throughput",
		Long:  "Process one image repeatedly and report frames per second and private memory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1, got %d", runs)
			}

			src, err := readImage(args[0])
			if err != nil {
				return err
			}

			result := benchResult{Input: args[0], Runs: runs}
			sampler := perf.NewSampler()
			sampler.Start()
			for i := 0; i < runs; i++ {
				res := (*proc).Process(cmd.Context(), src)
				if !res.OK() {
					return res.Err()
				}
				if res.Success.Path == pipeline.PathFallback {
					result.Fallbacks++
				}
				// Stop counts the final frame
				if i < runs-1 {
					sampler.RecordFrame()
				}
			}
			stats := sampler.Stop()
			result.FPS = stats.FPS
			result.MemoryUsageMB = stats.MemoryUsageMB

			if *jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d runs (%d fallback), %.2f fps, %.1f MB private memory\n",
				result.Input, result.Runs, result.Fallbacks, result.FPS, result.MemoryUsageMB)
			return nil
		},
	}

	cmd.Flags().IntVarP(&runs, "runs", "n", 10, "Number of pipeline runs")
	return cmd
}

func remoteCmd() *cobra.Command {
	var (
		addr    string
		out     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remote <image>",
		Short: "Enhance an image on a running server",
		Long:  "Send an image to the Enhancer gRPC service and write the PNG result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var header metadata.MD
			resp, err := handler.NewEnhancerClient(conn).Process(ctx, wrapperspb.Bytes(input),
				grpc.Header(&header), grpc.MaxCallSendMsgSize(handler.MaxRequestBytes))
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, resp.GetValue(), 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			first := func(k string) string {
				if v := header.Get(k); len(v) > 0 {
					return v[0]
				}
				return ""
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: path=%s, inference=%sms, device=%s, processor=%s, cache=%s\n",
				args[0], out, first(handler.HeaderOutputPath), first(handler.HeaderInferenceMs),
				first(handler.HeaderDevice), first(handler.HeaderProcessor), first(handler.HeaderCache))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "Server address")
	cmd.Flags().StringVarP(&out, "out", "o", "enhanced.png", "Output file")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}
