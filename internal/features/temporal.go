package features

import (
	"fmt"

	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
)

func init() {
	Register("temporal", func(cfg *mapping.Config) Calculator { return &TemporalFeatures{} })
}

var temporalNames = []string{
	"double_support",
	"single_support",
	"foot_off",
	"opposite_foot_off",
	"opposite_foot_contact",
	"stride_time",
	"step_time",
	"cadence",
}

// TemporalFeatures derives support and timing ratios from the events inside
// one cycle. Definitions follow Hollmann et al. 2011
// (doi: 10.1016/j.gaitpost.2011.03.024).
type TemporalFeatures struct{}

// Name returns the family name.
func (f *TemporalFeatures) Name() string { return "temporal" }

// FeatureNames returns the eight temporal features in output order.
func (f *TemporalFeatures) FeatureNames() []string {
	return append([]string(nil), temporalNames...)
}

// CalculateCycle extracts the ipsilateral foot off and the contralateral
// strike/off from the cycle's event table and derives the timing features.
// Event times are fractions of the cycle start; end is the cycle duration.
func (f *TemporalFeatures) CalculateCycle(cycle *model.Trial) ([]Row, error) {
	contraFO, contraFS, ipsiFO, end, err := cycleEventTimes(cycle.Events())
	if err != nil {
		return nil, err
	}

	values := []float64{
		(contraFO + (ipsiFO - contraFS)) / end, // double_support
		(contraFS - contraFO) / end,            // single_support
		ipsiFO / end,                           // foot_off
		contraFO / end,                         // opposite_foot_off
		contraFS / end,                         // opposite_foot_contact
		end,                                    // stride_time
		end - contraFS,                         // step_time
		60 / (end / 2),                         // cadence, steps per minute
	}
	return []Row{{Values: values}}, nil
}

// cycleEventTimes validates the in-cycle event sequence and returns the
// contra foot off, contra foot strike and ipsi foot off times together with
// the cycle duration.
func cycleEventTimes(table *model.EventTable) (contraFO, contraFS, ipsiFO, end float64, err error) {
	if table == nil {
		return 0, 0, 0, 0, model.ErrNoEvents
	}
	context := table.Meta.Context
	cycleID := table.Meta.CycleID
	end = table.Meta.EndTime

	if table.Len() < 3 {
		return 0, 0, 0, 0, fmt.Errorf("missing events in cycle %s nr. %d", context, cycleID)
	}

	ipsi := table.Filter(func(e model.Event) bool { return e.Context == context })
	contra := table.Filter(func(e model.Event) bool { return e.Context != context })
	if len(ipsi) != 1 || len(contra) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("unexpected event sequence in cycle %s nr. %d: %d ipsilateral and %d contralateral events",
			context, cycleID, len(ipsi), len(contra))
	}
	if ipsi[0].Label != model.LabelFootOff {
		return 0, 0, 0, 0, fmt.Errorf("unexpected ipsilateral %s in cycle %s nr. %d", ipsi[0].Label, context, cycleID)
	}

	var haveFS, haveFO bool
	for _, e := range contra {
		switch e.Label {
		case model.LabelFootStrike:
			contraFS, haveFS = e.Time, true
		case model.LabelFootOff:
			contraFO, haveFO = e.Time, true
		}
	}
	if !haveFS || !haveFO {
		return 0, 0, 0, 0, fmt.Errorf("unexpected event sequence in cycle %s nr. %d: contralateral strike/off pair not found",
			context, cycleID)
	}
	return contraFO, contraFS, ipsi[0].Time, end, nil
}
