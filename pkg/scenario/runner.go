package scenario

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/prosopo/obce/pkg/config"
	"github.com/prosopo/obce/pkg/contract"
	"github.com/prosopo/obce/pkg/env"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner runs scenarios, each one in its own environment.
type Runner struct {
	Config config.HarnessConfiguration
	// Options are passed to env.Setup for every scenario run. Contract
	// artifact is loaded once per Run if not set.
	Options env.Options
	Log     *zap.Logger

	// Include is a list of whole-name regexes, every scenario is run if
	// it's empty.
	Include []string
	// Skip is a list of whole-name regexes of scenarios not to run.
	Skip []string
	// Runs is the number of times each scenario is run, 1 if not set.
	Runs int
	// Parallel is the maximum number of simultaneous scenario runs, 1 if
	// not set.
	Parallel int
}

type job struct {
	scenario Scenario
	name     string
	run      int
}

// Select returns scenarios with names fully matching any of include regexes
// (all if there are none) and not matching any of skip regexes. Include
// regex not matching anything is an error.
func Select(scenarios []Scenario, include, skip []string) ([]Scenario, error) {
	inc, err := compileAll(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileAll(skip)
	if err != nil {
		return nil, err
	}

	var (
		res     []Scenario
		matched = make([]bool, len(inc))
	)
	for _, sc := range scenarios {
		selected := len(inc) == 0
		for i, re := range inc {
			if re.MatchString(sc.Name) {
				matched[i] = true
				selected = true
			}
		}
		for _, re := range exc {
			if re.MatchString(sc.Name) {
				selected = false
			}
		}
		if selected {
			res = append(res, sc)
		}
	}
	for i := range matched {
		if !matched[i] {
			return nil, fmt.Errorf("no scenarios matching %q", include[i])
		}
	}
	return res, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, s := range exprs {
		re, err := regexp.Compile(fmt.Sprintf("^%s$", s))
		if err != nil {
			return nil, fmt.Errorf("bad scenario name regex %q: %w", s, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// Run runs selected scenarios and returns their report. Scenario failures
// are not returned as errors, use Report.Err for them.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	selected, err := Select(scenarios, r.Include, r.Skip)
	if err != nil {
		return nil, err
	}
	var (
		opts     = r.prepare()
		jobs     = r.jobs(selected)
		outcomes = make([]Outcome, len(jobs))
		g        errgroup.Group
	)
	g.SetLimit(max(r.Parallel, 1))
	for i, j := range jobs {
		i, j := i, j // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			outcomes[i] = r.runJob(ctx, opts, j)
			return nil
		})
	}
	_ = g.Wait()
	return newReport(outcomes), nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) prepare() env.Options {
	opts := r.Options
	if opts.Logger == nil {
		opts.Logger = r.logger()
	}
	if opts.Artifact == nil {
		a, err := contract.Load(r.Config.Contract)
		if err != nil {
			// Every scenario fails at setup then.
			opts.Logger.Warn("failed to load contract", zap.Error(err))
		} else {
			opts.Artifact = a
		}
	}
	return opts
}

func (r *Runner) jobs(scenarios []Scenario) []job {
	var (
		runs = max(r.Runs, 1)
		res  = make([]job, 0, runs*len(scenarios))
	)
	for run := 0; run < runs; run++ {
		for _, sc := range scenarios {
			name := sc.Name
			if runs > 1 {
				name = fmt.Sprintf("%s/%d", name, run)
			}
			res = append(res, job{scenario: sc, name: name, run: run})
		}
	}
	return res
}

func (r *Runner) params() Params {
	p := Params{WeightPerUnit: r.Config.Weight.PerUnit}
	if p.WeightPerUnit == 0 {
		p.WeightPerUnit = config.DefaultWeightPerUnit
	}
	return p
}

func (r *Runner) runJob(ctx context.Context, opts env.Options, j job) (o Outcome) {
	var (
		log   = opts.Logger.With(zap.String("scenario", j.name))
		state = StateUninitialized
		start = time.Now()
		err   error
	)
	opts.Logger = log
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic caught running scenario: %v: %s", rec, debug.Stack())
		}
		o = newOutcome(j, state, time.Since(start), err)
		observe(j.scenario.Name, o)
		if err != nil {
			log.Error("failed to run scenario", zap.Stringer("state", state), zap.Error(err))
			return
		}
		log.Info("passed scenario", zap.Duration("duration", o.Duration))
	}()

	log.Info("running scenario")
	err = r.execute(ctx, opts, j.scenario, &state)
	return
}

// execute performs one scenario run updating its state. The environment is
// closed on every path, including panics.
func (r *Runner) execute(ctx context.Context, opts env.Options, sc Scenario, state *State) error {
	e, err := env.Setup(ctx, r.Config, opts)
	if err != nil {
		var se *env.SetupError
		if errors.As(err, &se) && (se.Stage == env.StageActor || se.Stage == env.StageDeploy) {
			*state = StateConnected
		}
		return err
	}
	*state = StateDeployed
	passed := false
	defer func() {
		e.Close()
		if passed {
			*state = StateClosed
		}
	}()

	res, err := sc.Call(e)
	if err != nil {
		return fmt.Errorf("call failed: %w", err)
	}
	*state = StateCalled

	err = sc.Assert(r.params(), res)
	if err != nil {
		return err
	}
	*state = StateAsserted
	passed = true
	return nil
}
