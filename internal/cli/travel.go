package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/portico"
	"github.com/aretw0/portico/pkg/domain"
)

// RunTravel boots the start partition and performs one transition to dest#portalID.
func RunTravel(ctx context.Context, opts Options, out io.Writer, dest string, portalID int) error {
	if opts.StartPartition == "" {
		return errors.New("a start partition is required (--start or start_partition)")
	}
	logger := createLogger(opts)

	arrivals := make(chan domain.ArrivalEvent, 1)
	spawn := portico.WithSpawnHook(func(p *domain.Portal) {
		p.OnArrival(func(e domain.ArrivalEvent) {
			select {
			case arrivals <- e:
			default:
			}
		})
	})

	sys, cleanup, err := createSystem(ctx, opts, logger, spawn)
	if err != nil {
		return err
	}
	defer cleanup()

	printSystemMessage(out, "Started at '%s'.", sys.ActivePartition())

	t, err := sys.Travel(ctx, domain.NormalizeKey(dest), portalID)
	if err != nil {
		return err
	}
	if err := t.Wait(ctx); err != nil {
		return err
	}

	select {
	case e := <-arrivals:
		printSystemMessage(out, "Arrived at portal %d of '%s' from '%s'.", e.PortalID, e.Partition, e.From)
	default:
		fmt.Fprintln(out, "no arrival observed")
	}
	return nil
}
