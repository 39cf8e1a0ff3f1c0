package capability

import (
	"context"
	"fmt"

	"github.com/chitralabs/chitra/internal/store"
	"github.com/chitralabs/chitra/internal/voiceio"
)

// Stores bundles the capability store handles the registry binds against.
type Stores struct {
	Contacts  *store.Contacts
	Calendar  *store.Calendar
	Reminders *store.Reminders
	Tasks     *store.Tasks
	Memory    *store.Memory
}

// BuildRegistry wires every cataloged action to its store call. The action
// set mirrors llm.CapabilityCatalog exactly: anything the catalog doesn't
// promise the model stays unregistered and dispatches to nil.
//
// Two argument conventions coexist, matching the catalog's hints: creators
// take the params object as the record itself, accessors take named
// arguments. Each handler decodes accordingly.
func BuildRegistry(s Stores, device voiceio.Device) *Registry {
	r := New()

	r.Register("contacts", "get", func(_ context.Context, params map[string]any) (any, error) {
		name, err := stringParam(params, "name")
		if err != nil {
			return nil, err
		}
		c, err := s.Contacts.Get(name)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("no contact found matching %q", name)
		}
		return c, nil
	})
	r.Register("contacts", "list", func(_ context.Context, _ map[string]any) (any, error) {
		return s.Contacts.List()
	})
	r.Register("contacts", "create", func(_ context.Context, params map[string]any) (any, error) {
		var c store.Contact
		if err := decodeRecord(params, &c); err != nil {
			return nil, err
		}
		return s.Contacts.Create(c)
	})
	r.Register("contacts", "update", func(_ context.Context, params map[string]any) (any, error) {
		id, err := stringParam(params, "id")
		if err != nil {
			return nil, err
		}
		fields, err := mapParam(params, "fields")
		if err != nil {
			return nil, err
		}
		return s.Contacts.Update(id, fields)
	})
	r.Register("contacts", "note_interaction", func(_ context.Context, params map[string]any) (any, error) {
		id, err := stringParam(params, "id")
		if err != nil {
			return nil, err
		}
		return s.Contacts.NoteInteraction(id)
	})

	r.Register("calendar", "get_upcoming", func(_ context.Context, params map[string]any) (any, error) {
		hours, err := intParam(params, "hours_ahead", 1)
		if err != nil {
			return nil, err
		}
		return s.Calendar.GetUpcoming(hours)
	})
	r.Register("calendar", "get_today", func(_ context.Context, _ map[string]any) (any, error) {
		return s.Calendar.GetToday()
	})
	r.Register("calendar", "create", func(_ context.Context, params map[string]any) (any, error) {
		var e store.Event
		if err := decodeRecord(params, &e); err != nil {
			return nil, err
		}
		return s.Calendar.Create(e)
	})
	r.Register("calendar", "get_range", func(_ context.Context, params map[string]any) (any, error) {
		start, err := stringParam(params, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := stringParam(params, "end_date")
		if err != nil {
			return nil, err
		}
		return s.Calendar.GetRange(start, end)
	})

	r.Register("reminders", "create", func(_ context.Context, params map[string]any) (any, error) {
		var rem store.Reminder
		if err := decodeRecord(params, &rem); err != nil {
			return nil, err
		}
		return s.Reminders.Create(rem)
	})
	r.Register("reminders", "list_upcoming", func(_ context.Context, params map[string]any) (any, error) {
		hours, err := intParam(params, "hours_ahead", 1)
		if err != nil {
			return nil, err
		}
		return s.Reminders.ListUpcoming(hours)
	})
	r.Register("reminders", "dismiss", func(_ context.Context, params map[string]any) (any, error) {
		id, err := stringParam(params, "id")
		if err != nil {
			return nil, err
		}
		return s.Reminders.Dismiss(id)
	})
	r.Register("reminders", "delete", func(_ context.Context, params map[string]any) (any, error) {
		id, err := stringParam(params, "id")
		if err != nil {
			return nil, err
		}
		if err := s.Reminders.Delete(id); err != nil {
			return nil, err
		}
		return &voiceio.Status{Status: "deleted"}, nil
	})

	r.Register("tasks", "create", func(_ context.Context, params map[string]any) (any, error) {
		var t store.Task
		if err := decodeRecord(params, &t); err != nil {
			return nil, err
		}
		return s.Tasks.Create(t)
	})
	r.Register("tasks", "list", func(_ context.Context, params map[string]any) (any, error) {
		status := "all"
		if _, ok := params["status"]; ok {
			var err error
			status, err = stringParam(params, "status")
			if err != nil {
				return nil, err
			}
		}
		return s.Tasks.List(status)
	})
	r.Register("tasks", "complete", func(_ context.Context, params map[string]any) (any, error) {
		id, err := stringParam(params, "id")
		if err != nil {
			return nil, err
		}
		return s.Tasks.Complete(id)
	})
	r.Register("tasks", "get_overdue", func(_ context.Context, _ map[string]any) (any, error) {
		return s.Tasks.GetOverdue()
	})
	r.Register("tasks", "get_due_today", func(_ context.Context, _ map[string]any) (any, error) {
		return s.Tasks.GetDueToday()
	})

	r.Register("memory", "search", func(_ context.Context, params map[string]any) (any, error) {
		query, err := stringParam(params, "query")
		if err != nil {
			return nil, err
		}
		return s.Memory.Search(query)
	})
	r.Register("memory", "store", func(_ context.Context, params map[string]any) (any, error) {
		var e store.MemoryEntry
		if err := decodeRecord(params, &e); err != nil {
			return nil, err
		}
		// An absent confidence key means full confidence; an explicit 0
		// is kept as written.
		if _, ok := params["confidence"]; !ok {
			e.Confidence = 1.0
		}
		return s.Memory.Store(e)
	})

	r.Register("voice_io", "set_input_mode", func(_ context.Context, params map[string]any) (any, error) {
		mode, err := stringParam(params, "mode")
		if err != nil {
			return nil, err
		}
		if err := device.SetInputMode(mode); err != nil {
			return nil, err
		}
		return &voiceio.Status{Status: "done"}, nil
	})

	return r
}
