package app

import (
	"github.com/dshills/reckon/internal/event"
)

// subscribeObservers attaches the session observers to the engine's events:
// a logging observer for every event, and an auto-save observer that
// persists the history after each mutating operation.
func (a *App) subscribeObservers() {
	events := a.cal.Events()
	log := a.log.WithField("component", "history")

	events.SubscribeAll(func(e event.Event) {
		log.Info("%s", event.Describe(e))
	})

	// Auto-save after mutations. Save and load events are excluded so a
	// triggered save never re-triggers itself.
	autoSave := func(event.Event) {
		if !a.autoSave.Load() {
			return
		}
		if err := a.cal.SaveHistory(); err != nil {
			log.Error("auto-save failed: %v", err)
		}
	}
	events.Subscribe(event.CalculationAdded{}.EventName(), autoSave)
	events.Subscribe(event.HistoryCleared{}.EventName(), autoSave)
	events.Subscribe(event.HistoryRestored{}.EventName(), autoSave)
}
