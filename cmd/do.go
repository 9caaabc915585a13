package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mj1618/browser-host/internal/app"
	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/mj1618/browser-host/internal/output"
	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DoResult is the output of a batch do command.
type DoResult struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Action    string       `yaml:"action"          json:"action"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

// StepResult is the output for a single step within a batch.
type StepResult struct {
	Step    int         `yaml:"step"              json:"step"`
	OK      bool        `yaml:"ok"                json:"ok"`
	Action  string      `yaml:"action"            json:"action"`
	Error   string      `yaml:"error,omitempty"   json:"error,omitempty"`
	Channel string      `yaml:"channel,omitempty" json:"channel,omitempty"`
	View    int         `yaml:"view,omitempty"    json:"view,omitempty"`
	ID      int         `yaml:"id,omitempty"      json:"id,omitempty"`
	Result  interface{} `yaml:"result,omitempty"  json:"result,omitempty"`
	Elapsed string      `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
}

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Run a batch of IPC requests against an in-process host",
	Long: `Execute a sequence of steps from a YAML list on stdin against a fresh
in-process host backed by the headless engine.

Each step is a step name with its parameters as a map. Steps execute
sequentially, and by default execution stops on the first error. A step with
"as: name" stores the id it produced; later steps can refer to it as "$name"
anywhere in their parameters or args.

Supported step types: window, close-window, spawn, invoke, send, send-sync, sleep

Example:
  browser-host do <<'EOF'
  - window: { as: win }
  - spawn: { type: backgroundPage, as: bg }
  - invoke: { view: $bg, channel: api-tabs-create, args: [{ url: "https://example.com" }] }
  - invoke: { view: $bg, channel: api-tabs-query }
  - send: { view: $bg, channel: window-toggle-maximize-$win }
  EOF`,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().Bool("stop-on-error", true, "Stop execution on first error (default: true)")
}

func runDo(cmd *cobra.Command, args []string) error {
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")

	// Read YAML steps from stdin
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	steps, err := parseSteps(data)
	if err != nil {
		return err
	}

	a, _, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return output.Print(runSteps(cmd.Context(), a, steps, stopOnError))
}

func parseSteps(data []byte) ([]map[string]map[string]interface{}, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("no steps provided on stdin: pipe a YAML list of steps")
	}
	var rawSteps []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &rawSteps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(rawSteps) == 0 {
		return nil, fmt.Errorf("no steps provided: expected a YAML list of steps")
	}
	return rawSteps, nil
}

// batch carries state between steps.
type batch struct {
	app  *app.App
	vars map[string]int
	// last is the most recently spawned view, the default sender.
	last int
}

func runSteps(ctx context.Context, a *app.App, rawSteps []map[string]map[string]interface{}, stopOnError bool) DoResult {
	if ctx == nil {
		ctx = context.Background()
	}
	b := &batch{app: a, vars: make(map[string]int)}
	results := make([]StepResult, 0, len(rawSteps))
	completed := 0
	var lastErr string

	for i, step := range rawSteps {
		stepNum := i + 1

		if len(step) != 1 {
			errMsg := fmt.Sprintf("step %d: expected exactly one step key, got %d", stepNum, len(step))
			results = append(results, StepResult{Step: stepNum, OK: false, Error: errMsg})
			lastErr = errMsg
			if stopOnError {
				break
			}
			continue
		}

		var (
			result StepResult
			err    error
		)
		for action, params := range step {
			params = b.expand(params).(map[string]interface{})
			result, err = b.execute(ctx, action, params)
			if err == nil {
				if name := server.StringParam(params, "as", ""); name != "" {
					b.vars[name] = result.ID
				}
			}
		}
		result.Step = stepNum
		if err != nil {
			result.OK = false
			result.Error = err.Error()
			results = append(results, result)
			lastErr = fmt.Sprintf("step %d: %s", stepNum, err.Error())
			if stopOnError {
				break
			}
			continue
		}
		result.OK = true
		completed++
		results = append(results, result)
	}

	return DoResult{
		OK:        lastErr == "",
		Action:    "do",
		Steps:     len(rawSteps),
		Completed: completed,
		Error:     lastErr,
		Results:   results,
	}
}

// expand replaces "$name" references with stored ids. A reference embedded
// in a longer string is substituted textually.
func (b *batch) expand(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		if strings.HasPrefix(t, "$") {
			if id, ok := b.vars[t[1:]]; ok {
				return id
			}
		}
		for name, id := range b.vars {
			t = strings.ReplaceAll(t, "$"+name, fmt.Sprint(id))
		}
		return t
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = b.expand(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = b.expand(val)
		}
		return out
	case nil:
		return map[string]interface{}{}
	default:
		return v
	}
}

func (b *batch) execute(ctx context.Context, action string, params map[string]interface{}) (StepResult, error) {
	switch action {
	case "window":
		return b.executeWindow(params)
	case "close-window":
		return b.executeCloseWindow(params)
	case "spawn":
		return b.executeSpawn(params)
	case "invoke", "send", "send-sync":
		return b.executeMessage(ctx, action, params)
	case "sleep":
		return executeSleep(params)
	default:
		return StepResult{Action: action}, fmt.Errorf("unknown step type %q: supported: window, close-window, spawn, invoke, send, send-sync, sleep", action)
	}
}

func (b *batch) executeWindow(params map[string]interface{}) (StepResult, error) {
	w, err := b.app.NewWindow(server.BoolParam(params, "incognito", false))
	if err != nil {
		return StepResult{Action: "window"}, err
	}
	return StepResult{Action: "window", ID: w.ID(), View: w.Native().WebContents().ID(), Result: w.Info()}, nil
}

func (b *batch) executeCloseWindow(params map[string]interface{}) (StepResult, error) {
	id := server.IntParam(params, "id", 0)
	w, ok := b.app.Window(id)
	if !ok {
		return StepResult{Action: "close-window"}, fmt.Errorf("window %d not found", id)
	}
	w.Close()
	return StepResult{Action: "close-window", ID: id}, nil
}

func (b *batch) executeSpawn(params map[string]interface{}) (StepResult, error) {
	spawner, ok := b.app.Provider().Views.(platform.ViewSpawner)
	if !ok {
		return StepResult{Action: "spawn"}, fmt.Errorf("spawn not supported by this backend")
	}
	typ, err := platform.ParseViewType(server.StringParam(params, "type", "backgroundPage"))
	if err != nil {
		return StepResult{Action: "spawn"}, err
	}
	v, err := spawner.SpawnView(platform.SpawnOptions{
		Type:      typ,
		Partition: server.StringParam(params, "partition", ""),
		WindowID:  server.IntParam(params, "window-id", 0),
		URL:       server.StringParam(params, "url", ""),
	})
	if err != nil {
		return StepResult{Action: "spawn"}, err
	}
	b.last = v.ID()
	return StepResult{Action: "spawn", ID: v.ID(), View: v.ID()}, nil
}

func (b *batch) executeMessage(ctx context.Context, action string, params map[string]interface{}) (StepResult, error) {
	channel := server.StringParam(params, "channel", "")
	result := StepResult{Action: action, Channel: channel}
	if channel == "" {
		return result, fmt.Errorf("channel is required")
	}

	viewID := server.IntParam(params, "view", b.last)
	var sender platform.ContentView
	if viewID != 0 {
		v, ok := b.app.Provider().Views.ContentView(viewID)
		if !ok {
			return result, fmt.Errorf("view %d not found", viewID)
		}
		sender = v
		result.View = viewID
	}

	var vals []interface{}
	if raw, ok := params["args"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return result, fmt.Errorf("args must be a list")
		}
		vals = list
	}
	args, err := ipc.NewArgs(vals...)
	if err != nil {
		return result, err
	}

	bus := b.app.Bus()
	switch action {
	case "invoke":
		result.Result, err = bus.Invoke(ctx, sender, channel, args)
	case "send-sync":
		result.Result, err = bus.SendSync(sender, channel, args)
	default:
		err = bus.Emit(sender, channel, args)
	}
	return result, err
}

func executeSleep(params map[string]interface{}) (StepResult, error) {
	ms := server.IntParam(params, "ms", 0)
	if ms <= 0 {
		return StepResult{Action: "sleep"}, fmt.Errorf("ms must be > 0")
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return StepResult{Action: "sleep", Elapsed: fmt.Sprintf("%dms", ms)}, nil
}
