package engine

import (
	"context"

	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/model"
	"github.com/appfx/appfx/internal/settings"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

// Deploy ships application code across every active plugin implementing the
// deploy capability, concurrently, with the same collection semantics as a
// provisioning phase. It requires a completed provision: deployment consumes
// endpoints and resource ids that only a successful provision records, and
// it runs against that recorded target rather than re-resolving accounts.
func (e *Engine) Deploy(ctx context.Context, proj *settings.ProjectSettings, env *environment.Info) error {
	parts, err := e.participants(proj)
	if err != nil {
		return err
	}

	sol := env.State.Solution()
	if !sol.ProvisionSucceeded {
		return apperrors.NewDeployBeforeProvisionError(env.EnvName)
	}

	calls := deployCalls(parts)
	if len(calls) == 0 {
		e.log.Infof("project has no deployable components; nothing to do")
		return nil
	}

	summary := e.runPhase(ctx, model.PhaseDeploy, proj, env, solutionTarget(sol), calls)
	if err := e.persist(env); err != nil {
		return err
	}
	return phaseError("deploy", summary)
}
