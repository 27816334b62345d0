package router

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

const Name = "router"

// Service executes containment commands on network devices, locally or over
// SSH. Sessions are cached per host.
type Service struct {
	sessions map[string]*sessionInfo
	mux      sync.Mutex
}

type sessionInfo struct {
	service *gosh.Service
}

// New creates a new Service instance
func New() *Service {
	return &Service{
		sessions: make(map[string]*sessionInfo),
	}
}

// Name returns the service Name
func (s *Service) Name() string {
	return Name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:   "exec",
			Input:  reflect.TypeOf(&ExecInput{}),
			Output: reflect.TypeOf(&ExecOutput{}),
		},
		{
			Name:   "isolate",
			Input:  reflect.TypeOf(&IsolateInput{}),
			Output: reflect.TypeOf(&IsolateOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "exec":
		return s.exec, nil
	case "isolate":
		return s.isolate, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

// getSession retrieves an existing session or creates a new one
func (s *Service) getSession(ctx context.Context, host *Host, env map[string]string) (*sessionInfo, error) {
	host.Init()
	sessionID := host.URL

	s.mux.Lock()
	defer s.mux.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session, nil
	}

	var service *gosh.Service
	var err error
	envOptions := []runner.Option{}
	if len(env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(env))
	}
	if url.Host(host.URL) == "localhost" {
		service, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, cErr := s.getSSHConfig(ctx, host)
		if cErr != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", cErr)
		}
		sshHost := url.Host(host.URL)
		if !strings.Contains(sshHost, ":") {
			sshHost += ":22"
		}
		service, err = gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	session := &sessionInfo{service: service}
	s.sessions[sessionID] = session
	return session, nil
}

// getSSHConfig creates an SSH config from the host's credentials
func (s *Service) getSSHConfig(ctx context.Context, host *Host) (*ssh.ClientConfig, error) {
	credentials := host.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all sessions held by this service
func (s *Service) Close(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for id, session := range s.sessions {
		if err := session.service.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("failed to close session %s: %v", id, err))
		}
	}
	s.sessions = make(map[string]*sessionInfo)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
