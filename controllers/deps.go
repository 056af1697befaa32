package controllers

import "garage-backend/syncer"

// engine is the process-wide sync orchestrator, wired in main. Controllers
// route invoice mutations through it so offline edits queue instead of
// failing.
var engine *syncer.Orchestrator

// UseEngine injects the sync orchestrator.
func UseEngine(o *syncer.Orchestrator) {
	engine = o
}
