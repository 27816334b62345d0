package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/gosh/runner"
)

// ExecInput defines commands to run on the target device
type ExecInput struct {
	Host         *Host             `json:"host,omitempty" description:"device to execute commands on"`
	Env          map[string]string `json:"env,omitempty" description:"environment variables set before commands run"`
	Commands     []string          `json:"commands,omitempty" description:"commands to execute"`
	TimeoutMs    int               `json:"timeoutMs,omitempty" description:"max wait time per command"`
	AbortOnError *bool             `json:"abortOnError,omitempty" description:"stop at the first non-zero exit status"`
}

func (i *ExecInput) Init() {
	if i.Host == nil {
		i.Host = &Host{}
	}
	i.Host.Init()
}

// Command captures one executed command and its result
type Command struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Stderr string `json:"stderr,omitempty"`
	Status int    `json:"status"`
}

// ExecOutput aggregates per-command results
type ExecOutput struct {
	Commands []*Command `json:"commands,omitempty"`
	Stdout   string     `json:"stdout,omitempty"`
	Stderr   string     `json:"stderr,omitempty"`
	Status   int        `json:"status"`
}

// Execute runs the commands on the target device in order
func (s *Service) Execute(ctx context.Context, input *ExecInput, output *ExecOutput) error {
	input.Init()
	session, err := s.getSession(ctx, input.Host, input.Env)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	abortOnError := true
	if input.AbortOnError != nil {
		abortOnError = *input.AbortOnError
	}
	timeoutDuration := time.Duration(input.TimeoutMs) * time.Millisecond
	if timeoutDuration == 0 {
		timeoutDuration = time.Minute
	}

	commands := make([]*Command, 0, len(input.Commands))
	var combinedStdout, combinedStderr strings.Builder
	var lastExitCode int
	for _, cmd := range input.Commands {
		command := &Command{Input: cmd}
		stdout, stderr, exitCode := s.executeCommand(ctx, session, cmd, timeoutDuration)
		command.Output = stdout
		command.Stderr = stderr
		command.Status = exitCode
		commands = append(commands, command)

		if stdout != "" {
			combinedStdout.WriteString(stdout)
			combinedStdout.WriteString("\n")
		}
		if stderr != "" {
			combinedStderr.WriteString(stderr)
			combinedStderr.WriteString("\n")
		}
		lastExitCode = exitCode
		if abortOnError && exitCode != 0 {
			break
		}
	}

	output.Commands = commands
	output.Stdout = strings.TrimSpace(combinedStdout.String())
	output.Stderr = strings.TrimSpace(combinedStderr.String())
	output.Status = lastExitCode
	return nil
}

// executeCommand runs a single command and returns its output
func (s *Service) executeCommand(ctx context.Context, session *sessionInfo, command string, duration time.Duration) (string, string, int) {
	started := time.Now()
	stdout, status, err := session.service.Run(ctx, command, runner.WithTimeout(int(duration.Milliseconds())))
	elapsed := time.Since(started)
	if elapsed > duration && err == nil {
		err = fmt.Errorf("command %v timed out after: %s", command, elapsed)
	}
	if status == 0 {
		return stdout, "", status
	}
	if stdout == "" && err != nil {
		stdout = err.Error()
	}
	return "", stdout, status
}

func (s *Service) exec(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ExecInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ExecOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Execute(ctx, input, output)
}
