package main

import (
	"weeklyplanner-auto/cmd/wpauto/commands"
	"weeklyplanner-auto/lib/serviceutil"
	"weeklyplanner-auto/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "wpauto")
	defer telemetry.Shutdown(ctx)
	commands.ExecuteContext(ctx)
}
