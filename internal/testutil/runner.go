package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// Call is one recorded tool invocation.
type Call struct {
	Tool string
	Args []string
}

// ScriptedRunner is a tools.Runner that answers from a script instead
// of spawning subprocesses. Responses are keyed by tool base name;
// unkeyed tools answer with empty output.
type ScriptedRunner struct {
	mu        sync.Mutex
	responses map[string]string
	queued    map[string][]string
	errors    map[string]error
	calls     []Call
}

// NewScriptedRunner creates an empty ScriptedRunner.
func NewScriptedRunner() *ScriptedRunner {
	return &ScriptedRunner{
		responses: make(map[string]string),
		queued:    make(map[string][]string),
		errors:    make(map[string]error),
	}
}

// Respond sets the stdout returned for a tool.
func (r *ScriptedRunner) Respond(tool, output string) {
	r.responses[toolBase(tool)] = output
}

// RespondOnce queues a one-shot response for a tool. Queued responses
// are consumed in order before the Respond fallback applies.
func (r *ScriptedRunner) RespondOnce(tool, output string) {
	name := toolBase(tool)
	r.queued[name] = append(r.queued[name], output)
}

// Fail sets the error returned for a tool.
func (r *ScriptedRunner) Fail(tool string, err error) {
	r.errors[toolBase(tool)] = err
}

// Run records the call and answers from the script.
func (r *ScriptedRunner) Run(tool string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := toolBase(tool)
	r.calls = append(r.calls, Call{Tool: name, Args: args})

	if err := r.errors[name]; err != nil {
		return "", err
	}
	if queue := r.queued[name]; len(queue) > 0 {
		r.queued[name] = queue[1:]
		return queue[0], nil
	}
	return r.responses[name], nil
}

// Calls returns the invocations recorded so far.
func (r *ScriptedRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded invocations of one tool.
func (r *ScriptedRunner) CallsTo(tool string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Tool == toolBase(tool) {
			out = append(out, c)
		}
	}
	return out
}

func toolBase(tool string) string {
	if i := strings.LastIndex(tool, "/"); i >= 0 {
		return tool[i+1:]
	}
	return tool
}

// ArgString joins a call's arguments for simple substring assertions.
func (c Call) ArgString() string {
	return fmt.Sprintf("%s %s", c.Tool, strings.Join(c.Args, " "))
}
