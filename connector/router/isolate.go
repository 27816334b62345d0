package router

import (
	"context"
	"fmt"

	"github.com/caseflow/caseflow/model/types"
)

// IsolateInput identifies the endpoint to cut off from the network
type IsolateInput struct {
	Host      *Host  `json:"host,omitempty" description:"device enforcing the isolation"`
	TargetIP  string `json:"targetIp" required:"true" description:"IP of the endpoint to isolate"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// IsolateOutput reports the applied containment
type IsolateOutput struct {
	Isolated bool   `json:"isolated"`
	TargetIP string `json:"targetIp"`
	Stdout   string `json:"stdout,omitempty"`
}

// Isolate drops all traffic to and from the target endpoint on the device.
func (s *Service) Isolate(ctx context.Context, input *IsolateInput, output *IsolateOutput) error {
	if input.TargetIP == "" {
		return fmt.Errorf("targetIp was empty")
	}
	execInput := &ExecInput{
		Host: input.Host,
		Commands: []string{
			fmt.Sprintf("iptables -I INPUT -s %s -j DROP", input.TargetIP),
			fmt.Sprintf("iptables -I OUTPUT -d %s -j DROP", input.TargetIP),
		},
		TimeoutMs: input.TimeoutMs,
	}
	execOutput := &ExecOutput{}
	if err := s.Execute(ctx, execInput, execOutput); err != nil {
		return err
	}
	if execOutput.Status != 0 {
		return fmt.Errorf("failed to isolate %s: %s", input.TargetIP, execOutput.Stderr)
	}
	output.Isolated = true
	output.TargetIP = input.TargetIP
	output.Stdout = execOutput.Stdout
	return nil
}

func (s *Service) isolate(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*IsolateInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*IsolateOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Isolate(ctx, input, output)
}
