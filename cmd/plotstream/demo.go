package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/plotstream/introspection"
	"github.com/c360/plotstream/natsclient"
	"github.com/c360/plotstream/telemetry"
)

const demoPoseSignal = "data://pose/model/box?p=pose3d"

// startDemoManager runs an embedded introspection manager publishing a
// synthetic simulation: advancing sim time and a box circling the origin.
// It exists so the daemon can be exercised without a real simulation.
func startDemoManager(ctx context.Context, g *errgroup.Group,
	nc *natsclient.Client, logger *slog.Logger, timeSignal string,
) (*introspection.Manager, error) {
	manager := introspection.NewManager("demo-sim", nc, logger)
	if err := manager.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize demo manager: %w", err)
	}
	if err := manager.Start(ctx); err != nil {
		return nil, fmt.Errorf("start demo manager: %w", err)
	}
	if err := manager.Register(ctx, timeSignal, demoPoseSignal); err != nil {
		return nil, fmt.Errorf("register demo signals: %w", err)
	}

	g.Go(func() error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		start := time.Now()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				simTime := time.Since(start).Seconds()
				snapshot := &telemetry.Snapshot{Params: []telemetry.Param{
					{Name: timeSignal, Value: telemetry.NewDouble(simTime)},
					{Name: demoPoseSignal, Value: telemetry.NewPose(telemetry.Pose{
						Position: telemetry.Vector3{
							X: math.Cos(simTime),
							Y: math.Sin(simTime),
							Z: 0.5,
						},
						Orientation: telemetry.FromEuler(0, 0, simTime),
					})},
				}}
				if err := manager.Publish(snapshot); err != nil {
					slog.Warn("Demo publish failed", "error", err)
				}
			}
		}
	})

	slog.Info("Demo manager started", "manager_id", manager.ID())
	return manager, nil
}
