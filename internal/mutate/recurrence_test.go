package mutate

import (
	"testing"
	"time"

	"dequeue/internal/model"
)

func dailyRule() *model.RecurrenceRule {
	return &model.RecurrenceRule{Frequency: model.Daily, Interval: 1}
}

func TestCreateNextOccurrenceDaily(t *testing.T) {
	env, log, _, tasks, st := taskFixture(t)
	due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	pred, _ := tasks.Create(st.ID, CreateTaskParams{
		Title:      "standup notes",
		Tags:       []string{"daily"},
		Priority:   2,
		DueAt:      &due,
		Recurrence: dailyRule(),
	})
	if err := tasks.MarkCompleted(pred.ID); err != nil {
		t.Fatal(err)
	}

	log.events = nil
	succ, err := tasks.CreateNextOccurrence(pred.ID)
	if err != nil {
		t.Fatalf("next occurrence: %v", err)
	}
	if succ == nil {
		t.Fatal("expected a successor")
	}
	if succ.Title != pred.Title || succ.Priority != pred.Priority {
		t.Fatalf("successor %q p=%d", succ.Title, succ.Priority)
	}
	if succ.Status != model.TaskPending {
		t.Fatalf("status = %s", succ.Status)
	}
	if succ.DueAt == nil || !succ.DueAt.Equal(due.AddDate(0, 0, 1)) {
		t.Fatalf("due = %v", succ.DueAt)
	}
	if succ.RecurrenceParentID != pred.ID {
		t.Fatalf("parent = %s", succ.RecurrenceParentID)
	}
	if succ.CompletedOccurrences != 1 {
		t.Fatalf("occurrences = %d", succ.CompletedOccurrences)
	}
	gp, _ := env.DB.FindTask(pred.ID)
	if gp.CompletedOccurrences != 1 {
		t.Fatalf("predecessor occurrences = %d", gp.CompletedOccurrences)
	}
	if n := len(log.ofType(model.EvTaskCreated)); n != 1 {
		t.Fatalf("create events = %d", n)
	}
}

func TestCreateNextOccurrenceChainKeepsRootParent(t *testing.T) {
	_, _, _, tasks, st := taskFixture(t)
	due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	root, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: dailyRule()})

	second, err := tasks.CreateNextOccurrence(root.ID)
	if err != nil || second == nil {
		t.Fatalf("second: %v %v", second, err)
	}
	third, err := tasks.CreateNextOccurrence(second.ID)
	if err != nil || third == nil {
		t.Fatalf("third: %v %v", third, err)
	}
	if third.RecurrenceParentID != root.ID {
		t.Fatalf("parent = %s, want root %s", third.RecurrenceParentID, root.ID)
	}
	if third.CompletedOccurrences != 2 {
		t.Fatalf("occurrences = %d", third.CompletedOccurrences)
	}
}

func TestCreateNextOccurrencePreservesLeadTime(t *testing.T) {
	_, _, _, tasks, st := taskFixture(t)
	start := time.Date(2026, 5, 8, 8, 0, 0, 0, time.UTC)
	due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	rule := &model.RecurrenceRule{Frequency: model.Weekly, Interval: 1}
	pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", StartAt: &start, DueAt: &due, Recurrence: rule})

	succ, err := tasks.CreateNextOccurrence(pred.ID)
	if err != nil || succ == nil {
		t.Fatalf("succ=%v err=%v", succ, err)
	}
	wantDue := due.AddDate(0, 0, 7)
	if !succ.DueAt.Equal(wantDue) {
		t.Fatalf("due = %v, want %v", succ.DueAt, wantDue)
	}
	wantStart := wantDue.Add(-due.Sub(start))
	if succ.StartAt == nil || !succ.StartAt.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", succ.StartAt, wantStart)
	}
}

func TestCreateNextOccurrenceEndConditions(t *testing.T) {
	t.Run("no rule", func(t *testing.T) {
		_, _, _, tasks, st := taskFixture(t)
		pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "plain"})
		succ, err := tasks.CreateNextOccurrence(pred.ID)
		if err != nil || succ != nil {
			t.Fatalf("succ=%v err=%v", succ, err)
		}
	})

	t.Run("after occurrences reached", func(t *testing.T) {
		env, log, _, tasks, st := taskFixture(t)
		due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
		rule := &model.RecurrenceRule{
			Frequency: model.Daily,
			Interval:  1,
			End:       model.RecurrenceEnd{Kind: model.EndAfterOccurrences, Count: 2},
		}
		pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: rule})

		second, err := tasks.CreateNextOccurrence(pred.ID)
		if err != nil || second == nil {
			t.Fatalf("second: %v %v", second, err)
		}

		log.events = nil
		third, err := tasks.CreateNextOccurrence(second.ID)
		if err != nil || third != nil {
			t.Fatalf("third: %v %v", third, err)
		}
		// The counter still advances on the final completion.
		gs, _ := env.DB.FindTask(second.ID)
		if gs.CompletedOccurrences != 2 {
			t.Fatalf("occurrences = %d", gs.CompletedOccurrences)
		}
		if len(log.ofType(model.EvTaskCreated)) != 0 {
			t.Fatal("no successor task expected")
		}
	})

	t.Run("end date equals next date", func(t *testing.T) {
		env, _, _, tasks, st := taskFixture(t)
		due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
		end := due.AddDate(0, 0, 1) // exactly the computed next date
		rule := &model.RecurrenceRule{
			Frequency: model.Daily,
			Interval:  1,
			End:       model.RecurrenceEnd{Kind: model.EndOnDate, Date: &end},
		}
		pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: rule})
		succ, err := tasks.CreateNextOccurrence(pred.ID)
		if err != nil || succ != nil {
			t.Fatalf("a next date on the end date must not spawn: succ=%v err=%v", succ, err)
		}
		gp, _ := env.DB.FindTask(pred.ID)
		if gp.CompletedOccurrences != 1 {
			t.Fatalf("occurrences = %d", gp.CompletedOccurrences)
		}
	})

	t.Run("end date already behind the clock", func(t *testing.T) {
		_, _, _, tasks, st := taskFixture(t)
		// The test clock sits in May 2026; the next date (Apr 2) is still
		// before the end date, but the end date itself is in the past.
		due := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
		end := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
		rule := &model.RecurrenceRule{
			Frequency: model.Daily,
			Interval:  1,
			End:       model.RecurrenceEnd{Kind: model.EndOnDate, Date: &end},
		}
		pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: rule})
		succ, err := tasks.CreateNextOccurrence(pred.ID)
		if err != nil || succ != nil {
			t.Fatalf("an elapsed end date must not spawn: succ=%v err=%v", succ, err)
		}
	})

	t.Run("end date passed", func(t *testing.T) {
		_, _, _, tasks, st := taskFixture(t)
		due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
		end := time.Date(2026, 5, 10, 23, 0, 0, 0, time.UTC)
		rule := &model.RecurrenceRule{
			Frequency: model.Daily,
			Interval:  1,
			End:       model.RecurrenceEnd{Kind: model.EndOnDate, Date: &end},
		}
		pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: rule})
		succ, err := tasks.CreateNextOccurrence(pred.ID)
		if err != nil || succ != nil {
			t.Fatalf("succ=%v err=%v", succ, err)
		}
	})

	t.Run("stack deleted", func(t *testing.T) {
		_, _, stacks, tasks, st := taskFixture(t)
		due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
		pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: dailyRule()})
		if err := stacks.Delete(st.ID); err != nil {
			t.Fatal(err)
		}
		succ, err := tasks.CreateNextOccurrence(pred.ID)
		if err != nil || succ != nil {
			t.Fatalf("succ=%v err=%v", succ, err)
		}
	})
}

func TestCreateNextOccurrenceCopiesRule(t *testing.T) {
	env, _, _, tasks, st := taskFixture(t)
	due := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	rule := &model.RecurrenceRule{
		Frequency:  model.Weekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Monday},
	}
	pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", DueAt: &due, Recurrence: rule})
	succ, err := tasks.CreateNextOccurrence(pred.ID)
	if err != nil || succ == nil {
		t.Fatalf("succ=%v err=%v", succ, err)
	}

	// Editing the predecessor's rule must not reach the successor.
	gp, _ := env.DB.FindTask(pred.ID)
	gp.Recurrence.Interval = 5
	gp.Recurrence.DaysOfWeek[0] = time.Friday

	gs, _ := env.DB.FindTask(succ.ID)
	if gs.Recurrence == gp.Recurrence {
		t.Fatal("successor shares the predecessor's rule pointer")
	}
	if gs.Recurrence.Interval != 1 || gs.Recurrence.DaysOfWeek[0] != time.Monday {
		t.Fatalf("successor rule aliases the predecessor's: %+v", gs.Recurrence)
	}
}

func TestCreateNextOccurrenceWithoutDueUsesNow(t *testing.T) {
	_, _, _, tasks, st := taskFixture(t)
	pred, _ := tasks.Create(st.ID, CreateTaskParams{Title: "t", Recurrence: dailyRule()})
	succ, err := tasks.CreateNextOccurrence(pred.ID)
	if err != nil || succ == nil {
		t.Fatalf("succ=%v err=%v", succ, err)
	}
	if succ.DueAt == nil {
		t.Fatal("successor should get a due date")
	}
	// The deterministic test clock starts on 2026-05-01; daily advances one
	// day from "now".
	if succ.DueAt.Day() != 2 {
		t.Fatalf("due = %v", succ.DueAt)
	}
	if succ.StartAt != nil {
		t.Fatal("no lead time without a predecessor start")
	}
}
