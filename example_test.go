package marquee_test

import (
	"context"
	"fmt"

	"github.com/aretw0/marquee"
	"github.com/aretw0/marquee/pkg/adapters/memory"
	"github.com/aretw0/marquee/pkg/domain"
)

func ExampleEngine_Steps() {
	deck := memory.NewDeck(domain.Slide{
		ID:       "intro",
		Elements: []domain.Element{{ID: "title"}, {ID: "logo"}, {ID: "quote"}},
		Animations: []domain.Animation{
			{Target: "title", Trigger: domain.TriggerOnClick, Effect: "fade-in", Duration: 300},
			{Target: "logo", Trigger: domain.TriggerWithPrevious, Effect: "zoom", Duration: 300},
			{Target: "quote", Trigger: domain.TriggerOnKey, Key: "v", Effect: "fly-in", Duration: 400},
		},
	})

	eng, err := marquee.New(context.Background(), "", marquee.WithDeck(deck))
	if err != nil {
		panic(err)
	}

	steps, err := eng.Steps(0)
	if err != nil {
		panic(err)
	}
	for i, s := range steps {
		fmt.Printf("step %d: %s %v\n", i+1, s.Trigger, s.Targets())
	}
	// Output:
	// step 1: on-click [title logo]
	// step 2: on-key [quote]
}

func ExampleEngine_Preview() {
	deck := memory.NewDeck(domain.Slide{
		ID:       "intro",
		Elements: []domain.Element{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}},
		Animations: []domain.Animation{
			{Target: "e1", Trigger: domain.TriggerOnEnter, Duration: 600},
			{Target: "e2", Trigger: domain.TriggerOnClick, Duration: 300},
			{Target: "e3", Trigger: domain.TriggerAfterPrevious, Delay: 100, Duration: 300},
		},
	})

	eng, _ := marquee.New(context.Background(), "", marquee.WithDeck(deck))
	sched, err := eng.Preview(0, marquee.PreviewModeAll)
	if err != nil {
		panic(err)
	}
	for _, e := range sched.Entries {
		fmt.Printf("%s starts at %dms\n", e.Animation.Target, e.Delay)
	}
	fmt.Println("clicks:", sched.FlashTimes, "end:", sched.End)
	// Output:
	// e1 starts at 0ms
	// e2 starts at 600ms
	// e3 starts at 1000ms
	// clicks: [600] end: 1300
}

func ExampleEngine_NewSession() {
	deck := memory.NewDeck(
		domain.Slide{
			ID:         "a",
			Elements:   []domain.Element{{ID: "x"}},
			Animations: []domain.Animation{{Target: "x", Trigger: domain.TriggerOnKey, Key: "v", Duration: 100}},
		},
		domain.Slide{ID: "b"},
	)
	eng, _ := marquee.New(context.Background(), "", marquee.WithDeck(deck))

	ctx := context.Background()
	s := eng.NewSession()
	if err := s.Start(ctx, 0); err != nil {
		panic(err)
	}
	s.OnKey(ctx, "x")
	fmt.Println(s.State())
	s.OnKey(ctx, "v")
	fmt.Println(s.State())
	s.Advance(ctx)
	fmt.Println(s.State())
	s.Exit(ctx)
	fmt.Println(s.Mode())
	// Output:
	// {0 0}
	// {0 1}
	// {1 0}
	// idle
}
