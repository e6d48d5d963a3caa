package weeklyplanner

import (
	"weeklyplanner-auto/lib/telemetry"
)

var tracer = telemetry.Tracer("weeklyplanner-auto.lib.weeklyplanner")
