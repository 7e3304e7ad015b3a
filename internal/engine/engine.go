// Package engine ties configuration, the document store and the AWS client
// to pipeline compilation. Every CLI command goes through it.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/emrlaunch/emrlaunch/internal/aws"
	"github.com/emrlaunch/emrlaunch/internal/config"
	"github.com/emrlaunch/emrlaunch/internal/lock"
	"github.com/emrlaunch/emrlaunch/internal/profile"
	"github.com/emrlaunch/emrlaunch/internal/rollback"
	"github.com/emrlaunch/emrlaunch/internal/sfn"
	"github.com/emrlaunch/emrlaunch/internal/state"
	"github.com/emrlaunch/emrlaunch/internal/store"
	"github.com/emrlaunch/emrlaunch/internal/workflow"
)

// Engine is the core generator shared by all commands.
type Engine struct {
	Config *config.Config
	State  *state.State
	Store  store.Store
	Logger *slog.Logger

	statePath string
}

// New creates a new Engine with the given config and logger.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		Config:    cfg,
		Logger:    logger,
		statePath: config.ExpandHome(state.DefaultPath),
	}
}

// OpenStore connects the configured store unless one is already set.
func (e *Engine) OpenStore(ctx context.Context) (store.Store, error) {
	if e.Store != nil {
		return e.Store, nil
	}
	s, err := store.Open(ctx, e.Config)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", e.Config.Store.Type, err)
	}
	e.Store = s
	return s, nil
}

// Close releases the store.
func (e *Engine) Close(ctx context.Context) error {
	if e.Store == nil {
		return nil
	}
	return e.Store.Close(ctx)
}

// LoadState loads the generation state from disk.
func (e *Engine) LoadState() (*state.State, error) {
	st, err := state.Load(e.statePath)
	if err != nil {
		return nil, err
	}
	e.State = st
	return st, nil
}

// SaveState persists the current generation state to disk.
func (e *Engine) SaveState() error {
	if e.State == nil {
		return fmt.Errorf("no state to save")
	}
	return e.State.Save(e.statePath)
}

// lockState keeps other emrlaunch processes from updating the state file
// until the returned release is called.
func (e *Engine) lockState() (release func(), err error) {
	l, err := lock.Acquire(lock.PathFor(e.statePath))
	if err != nil {
		return nil, err
	}
	return func() {
		if err := l.Release(); err != nil {
			e.Logger.Warn("releasing state lock", "error", err)
		}
	}, nil
}

// PassRoles resolves the configured profile's roles. Without a profile
// there are none.
func (e *Engine) PassRoles(ctx context.Context, env sfn.Env) ([]string, error) {
	ref := e.Config.Profile
	if ref.Name == "" {
		return nil, nil
	}
	s, err := e.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	p, err := profile.NewResolver(s).Resolve(ctx, ref.Namespace, ref.Name)
	if err != nil {
		return nil, err
	}
	return p.PassRoles(env), nil
}

// Compile builds the state machine of a pipeline against the configuration.
func (e *Engine) Compile(ctx context.Context, p *workflow.Pipeline) (workflow.StateMachine, error) {
	env := e.Config.Env()
	fns, err := e.Config.Callables(env)
	if err != nil {
		return workflow.StateMachine{}, fmt.Errorf("resolving functions: %w", err)
	}
	roles, err := e.PassRoles(ctx, env)
	if err != nil {
		return workflow.StateMachine{}, fmt.Errorf("resolving pass roles: %w", err)
	}
	sm, err := p.Compile(workflow.Options{Env: env, Functions: fns, PassRoles: roles})
	if err != nil {
		return workflow.StateMachine{}, err
	}
	e.Logger.Debug("compiled pipeline", "name", p.Name, "states", len(sm.StateNames()))
	return sm, nil
}

// Generated describes the files written for one pipeline.
type Generated struct {
	Name           string
	DefinitionPath string
	PolicyPath     string
	Hash           string
	Machine        workflow.StateMachine
}

// Generate compiles the pipeline at pipelinePath and writes its definition and
// policy into outDir.
func (e *Engine) Generate(ctx context.Context, pipelinePath, outDir string) (*Generated, error) {
	p, err := workflow.LoadPipeline(pipelinePath)
	if err != nil {
		return nil, err
	}
	sm, err := e.Compile(ctx, p)
	if err != nil {
		return nil, err
	}

	definition, err := json.MarshalIndent(sm, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding definition: %w", err)
	}
	policy, err := json.MarshalIndent(sm.Policy(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding policy: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	g := &Generated{
		Name:           p.Name,
		DefinitionPath: filepath.Join(outDir, p.Name+".asl.json"),
		PolicyPath:     filepath.Join(outDir, p.Name+".policy.json"),
		Hash:           hash(definition),
		Machine:        sm,
	}
	if err := os.WriteFile(g.DefinitionPath, append(definition, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing definition: %w", err)
	}
	if err := os.WriteFile(g.PolicyPath, append(policy, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing policy: %w", err)
	}

	release, err := e.lockState()
	if err != nil {
		return nil, err
	}
	defer release()
	st, err := e.LoadState()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	st.Generated(p.Name, state.Machine{
		PipelinePath:   pipelinePath,
		DefinitionPath: g.DefinitionPath,
		PolicyPath:     g.PolicyPath,
		DefinitionHash: g.Hash,
	})
	if err := e.SaveState(); err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}

	e.Logger.Info("generated state machine", "name", p.Name, "definition", g.DefinitionPath, "policy", g.PolicyPath)
	return g, nil
}

func hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (e *Engine) machine(name string) (*state.Machine, error) {
	st, err := e.LoadState()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	m, ok := st.Machines[name]
	if !ok {
		return nil, fmt.Errorf("state machine %q has not been generated; run generate first", name)
	}
	return m, nil
}

// Preflight simulates the generated policy of name for principal, the caller
// when empty.
func (e *Engine) Preflight(ctx context.Context, client aws.Client, name, principal string) (*aws.PreflightResult, error) {
	release, err := e.lockState()
	if err != nil {
		return nil, err
	}
	defer release()
	m, err := e.machine(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(m.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	var doc sfn.PolicyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy %s: %w", m.PolicyPath, err)
	}

	env := e.Config.Env()
	if env.Partition == "" || env.Account == "" {
		id, err := client.VerifyCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("verifying credentials: %w", err)
		}
		callerEnv, err := aws.EnvFromIdentity(id, env.Region)
		if err != nil {
			return nil, err
		}
		if env.Partition == "" {
			env.Partition = callerEnv.Partition
		}
		if env.Account == "" {
			env.Account = callerEnv.Account
		}
	}

	result, err := aws.RunPreflight(ctx, client, principal, env, doc)
	if err != nil {
		return nil, err
	}
	if result.OK() {
		if err := e.State.Verified(name, result.Principal); err != nil {
			return nil, err
		}
		if err := e.SaveState(); err != nil {
			return nil, fmt.Errorf("saving state: %w", err)
		}
	}
	e.Logger.Info("preflight finished", "name", name, "principal", result.Principal,
		"checked", result.Checked, "denied", len(result.Denied))
	return result, nil
}

// Publish uploads the generated documents of name to the configured bucket.
func (e *Engine) Publish(ctx context.Context, client aws.Client, name string, replace bool) (*aws.UploadResult, error) {
	if e.Config.AWS.S3Bucket == "" {
		return nil, fmt.Errorf("aws.s3_bucket is not configured")
	}
	release, err := e.lockState()
	if err != nil {
		return nil, err
	}
	defer release()
	m, err := e.machine(name)
	if err != nil {
		return nil, err
	}
	definition, err := os.ReadFile(m.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	if h := hash(trimNewline(definition)); m.DefinitionHash != "" && h != m.DefinitionHash {
		return nil, fmt.Errorf("definition %s changed since it was generated; run generate again", m.DefinitionPath)
	}
	var policy []byte
	if m.PolicyPath != "" {
		if policy, err = os.ReadFile(m.PolicyPath); err != nil {
			return nil, fmt.Errorf("reading policy: %w", err)
		}
	}

	uploader := aws.NewDefinitionUploader(client, e.Config.AWS.S3Bucket, e.Config.AWS.S3Prefix)
	if replace {
		if err := uploader.Replace(ctx, name); err != nil {
			return nil, err
		}
	}
	result, err := uploader.Upload(ctx, aws.DefinitionSet{Name: name, Definition: definition, Policy: policy})
	if err != nil {
		return nil, err
	}
	if err := e.State.Published(name, result.DefinitionS3URI, result.PolicyS3URI); err != nil {
		return nil, err
	}
	if err := e.SaveState(); err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}
	e.Logger.Info("published state machine", "name", name, "definition", result.DefinitionS3URI)
	return result, nil
}

// Rollback withdraws published definitions and records the result. Names
// empty means every published machine.
func (e *Engine) Rollback(ctx context.Context, client aws.Client, names []string, forget bool) (*rollback.Result, error) {
	release, err := e.lockState()
	if err != nil {
		return nil, err
	}
	defer release()
	st, err := e.LoadState()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	result, err := rollback.New(client, st).Execute(ctx, rollback.Options{Names: names, Forget: forget})
	if err != nil {
		return nil, err
	}
	if err := e.SaveState(); err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}
	e.Logger.Info("rolled back", "withdrawn", len(result.Withdrawn), "forgotten", len(result.Forgotten), "errors", len(result.Errors))
	return result, nil
}

func trimNewline(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		return b[:n-1]
	}
	return b
}

// CheckClusterConfiguration validates a stored cluster configuration.
func (e *Engine) CheckClusterConfiguration(ctx context.Context, namespace, name string) ([]string, error) {
	s, err := e.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.Get(ctx, store.Key{Kind: store.KindClusterConfiguration, Namespace: namespace, Name: name})
	if err != nil {
		return nil, err
	}
	return store.ValidateClusterConfiguration(doc)
}

// PutDocument validates doc for its kind and stores it. Cluster
// configurations report the fields whose stored value will be ignored;
// profiles are stored in normalized form.
func (e *Engine) PutDocument(ctx context.Context, key store.Key, doc store.Document) ([]string, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s, err := e.OpenStore(ctx)
	if err != nil {
		return nil, err
	}

	var ignored []string
	switch key.Kind {
	case store.KindClusterConfiguration:
		if ignored, err = store.ValidateClusterConfiguration(doc); err != nil {
			return nil, err
		}
		err = s.Put(ctx, key, doc)
	case store.KindProfile:
		p, perr := profile.FromDocument(key.Namespace, key.Name, doc)
		if perr != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidDocument, perr)
		}
		err = profile.NewResolver(s).Save(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	e.Logger.Info("stored document", "key", key.String(), "ignored", len(ignored))
	return ignored, nil
}
