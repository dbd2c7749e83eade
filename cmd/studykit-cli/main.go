package main

import (
	"studykit-backend/cmd/studykit-cli/commands"
	"studykit-backend/lib/serviceutil"
	"studykit-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.SetupFromEnv(ctx, "studykit-cli")
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
