package logic

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/blues/fundmagic/internal/model"
	"github.com/blues/fundmagic/internal/testutil"
	"github.com/google/uuid"
)

func TestCreateProjectRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "houdini")
	in := newProjectInput(250000,
		RewardInput{Title: "Thank you card", Description: "Handwritten", Amount: 500, EstimatedDelivery: "2025-12"},
		RewardInput{Title: "Trick DVD", Amount: 2500, IsLimited: true, QuantityLimit: int64Ptr(100)},
		RewardInput{Title: "Private show", Amount: 100000, IsAvailable: boolPtr(false)},
	)
	in.Faqs = []FaqInput{
		{Question: "When does it ship?", Answer: "Next spring"},
		{Question: "Is it safe?", Answer: "Mostly"},
	}

	created := mustCreateProject(t, pl, creator, in)

	got, err := pl.Get(ctx, created.Id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Rewards) != 3 || len(got.Faqs) != 2 {
		t.Fatalf("rewards/faqs = %d/%d, want 3/2", len(got.Rewards), len(got.Faqs))
	}
	for i, want := range in.Rewards {
		r := got.Rewards[i]
		if r.Id == "" || r.Title != want.Title || r.Amount != want.Amount || r.IsLimited != want.IsLimited {
			t.Errorf("reward %d = %+v, want %+v", i, r, want)
		}
		if r.BackersCount != 0 {
			t.Errorf("reward %d backers = %d, want 0", i, r.BackersCount)
		}
	}
	if got.Rewards[1].QuantityLimit == nil || *got.Rewards[1].QuantityLimit != 100 {
		t.Errorf("quantity limit = %v, want 100", got.Rewards[1].QuantityLimit)
	}
	if got.Rewards[0].QuantityLimit != nil {
		t.Errorf("unlimited reward has quantity limit %v", *got.Rewards[0].QuantityLimit)
	}
	if !got.Rewards[0].IsAvailable || got.Rewards[2].IsAvailable {
		t.Errorf("availability = %v/%v, want true/false", got.Rewards[0].IsAvailable, got.Rewards[2].IsAvailable)
	}
	if got.Faqs[0].Question != "When does it ship?" || got.Faqs[1].Answer != "Mostly" {
		t.Errorf("faqs = %+v", got.Faqs)
	}

	if got.Status != model.ProjectStatusActive || got.CurrentFunding != 0 || got.BackersCount != 0 {
		t.Errorf("project = %s/%d/%d, want active/0/0", got.Status, got.CurrentFunding, got.BackersCount)
	}
	if pct := FundingPercentage(got.CurrentFunding, got.FundingGoal); pct != 0 {
		t.Errorf("funding percentage = %v, want 0", pct)
	}
	if days := DaysLeft(got.EndDate, time.Now()); days != 29 && days != 30 {
		t.Errorf("days left = %d, want about 30", days)
	}
	if got.CreatorId != creator.Id || got.CreatorName != "houdini" {
		t.Errorf("creator = %s/%s", got.CreatorId, got.CreatorName)
	}

	if n := testutil.CountRows(t, db, &model.UserProjectModel{}, "user_id = ? AND project_id = ? AND relation = ?",
		creator.Id, created.Id, model.UserRelationCreated); n != 1 {
		t.Errorf("created rows = %d, want 1", n)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	creator := testutil.CreateUser(t, db, "houdini")

	tests := []struct {
		name   string
		mutate func(in *ProjectInput)
	}{
		{"missing title", func(in *ProjectInput) { in.Title = "  " }},
		{"missing description", func(in *ProjectInput) { in.Description = "" }},
		{"missing category", func(in *ProjectInput) { in.Category = "" }},
		{"unknown category", func(in *ProjectInput) { in.Category = "juggling" }},
		{"zero goal", func(in *ProjectInput) { in.FundingGoal = 0 }},
		{"zero duration", func(in *ProjectInput) { in.DaysDuration = 0 }},
		{"duration too long", func(in *ProjectInput) { in.DaysDuration = 366 }},
		{"limited without limit", func(in *ProjectInput) {
			in.Rewards = []RewardInput{{Title: "Wand", Amount: 100, IsLimited: true}}
		}},
		{"reward without amount", func(in *ProjectInput) {
			in.Rewards = []RewardInput{{Title: "Wand"}}
		}},
		{"empty faq", func(in *ProjectInput) {
			in.Faqs = []FaqInput{{Question: "Why?"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newProjectInput(1000)
			tt.mutate(in)

			_, err := pl.Create(context.Background(), in, creator)
			assertBizError(t, err, ErrValidation, "")
		})
	}

	if n := testutil.CountRows(t, db, &model.ProjectModel{}, "1 = 1"); n != 0 {
		t.Errorf("projects = %d, want 0", n)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)

	_, err := pl.Get(context.Background(), uuid.NewString())
	assertBizError(t, err, ErrNotFound, DetailProjectNotFound)
}

func TestListProjectsSorting(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	creator := testutil.CreateUser(t, db, "houdini")

	funding := []int64{30, 10, 50}
	ids := make(map[int64]string)
	for i, amount := range funding {
		in := newProjectInput(100)
		in.Title = fmt.Sprintf("Project %d", i)
		in.DaysDuration = 10 + i
		p := mustCreateProject(t, pl, creator, in)
		setColumn(t, db, &model.ProjectModel{}, p.Id, "current_funding", amount)
		ids[amount] = p.Id
	}

	tests := []struct {
		sort string
		want []int64
	}{
		{SortTrending, []int64{50, 30, 10}},
		{SortMostFunded, []int64{50, 30, 10}},
		{SortEndingSoon, []int64{30, 10, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			projects, err := pl.List(context.Background(), ProjectFilter{SortBy: tt.sort})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(projects) != len(tt.want) {
				t.Fatalf("got %d projects, want %d", len(projects), len(tt.want))
			}
			for i, amount := range tt.want {
				if projects[i].Id != ids[amount] {
					t.Errorf("position %d = funding %d, want %d", i, projects[i].CurrentFunding, amount)
				}
			}
		})
	}
}

func TestListTrendingBreaksTiesByBackers(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	creator := testutil.CreateUser(t, db, "houdini")

	few := mustCreateProject(t, pl, creator, newProjectInput(100))
	many := mustCreateProject(t, pl, creator, newProjectInput(100))
	for _, id := range []string{few.Id, many.Id} {
		setColumn(t, db, &model.ProjectModel{}, id, "current_funding", 40)
	}
	setColumn(t, db, &model.ProjectModel{}, few.Id, "backers_count", 1)
	setColumn(t, db, &model.ProjectModel{}, many.Id, "backers_count", 4)

	projects, err := pl.List(context.Background(), ProjectFilter{SortBy: SortTrending})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(projects) != 2 || projects[0].Id != many.Id {
		t.Fatalf("trending order wrong: %+v", projects)
	}
}

func TestListProjectsFilters(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	ctx := context.Background()

	houdini := testutil.CreateUser(t, db, "houdini")
	blaine := testutil.CreateUser(t, db, "blaine")

	card := newProjectInput(1000)
	card.Title = "Ambitious Card Routine"
	mustCreateProject(t, pl, houdini, card)

	stage := newProjectInput(1000)
	stage.Title = "Sawing in Half"
	stage.Category = "illusion"
	sawing := mustCreateProject(t, pl, blaine, stage)
	setColumn(t, db, &model.ProjectModel{}, sawing.Id, "is_featured", true)

	percent := newProjectInput(1000)
	percent.Title = "100% Real Levitation"
	percent.Category = "mentalism"
	mustCreateProject(t, pl, blaine, percent)

	digits := newProjectInput(1000)
	digits.Title = "1000 Card Fan"
	digits.Category = "mentalism"
	mustCreateProject(t, pl, blaine, digits)

	draft := newProjectInput(1000)
	draft.Title = "Secret Draft"
	draft.Draft = true
	mustCreateProject(t, pl, houdini, draft)

	featured := true
	tests := []struct {
		name   string
		filter ProjectFilter
		want   int
	}{
		{"default excludes drafts", ProjectFilter{}, 4},
		{"status draft", ProjectFilter{Status: "draft"}, 1},
		{"category", ProjectFilter{Category: "illusion"}, 1},
		{"category all", ProjectFilter{Category: "all"}, 4},
		{"featured", ProjectFilter{Featured: &featured}, 1},
		{"search title case insensitive", ProjectFilter{Search: "AMBITIOUS"}, 1},
		{"search creator name", ProjectFilter{Search: "Blaine"}, 3},
		{"search description", ProjectFilter{Search: "float above"}, 4},
		{"search no match", ProjectFilter{Search: "teleport"}, 0},
		{"search respects category", ProjectFilter{Search: "float", Category: "closeup"}, 1},
		{"search percent is literal", ProjectFilter{Search: "100%"}, 1},
		{"search underscore is literal", ProjectFilter{Search: "1_00"}, 0},
		{"limit", ProjectFilter{Limit: 1}, 1},
		{"offset", ProjectFilter{Offset: 1}, 3},
		{"limit capped", ProjectFilter{Limit: 1000}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, err := pl.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(projects) != tt.want {
				t.Errorf("got %d projects, want %d", len(projects), tt.want)
			}
		})
	}

	for _, bad := range []ProjectFilter{{Limit: -1}, {Offset: -1}, {Status: "cancelled"}} {
		_, err := pl.List(ctx, bad)
		assertBizError(t, err, ErrValidation, "")
	}
}

func TestListCreated(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)

	houdini := testutil.CreateUser(t, db, "houdini")
	other := testutil.CreateUser(t, db, "blaine")

	first := mustCreateProject(t, pl, houdini, newProjectInput(1000))
	draft := newProjectInput(1000)
	draft.Draft = true
	second := mustCreateProject(t, pl, houdini, draft)
	mustCreateProject(t, pl, other, newProjectInput(1000))
	setColumn(t, db, &model.ProjectModel{}, first.Id, "created_at", time.Now().Add(-time.Hour))

	projects, err := pl.ListCreated(context.Background(), houdini.Id)
	if err != nil {
		t.Fatalf("ListCreated: %v", err)
	}
	if len(projects) != 2 || projects[0].Id != second.Id || projects[1].Id != first.Id {
		t.Fatalf("created projects = %+v, want [second first]", projects)
	}
}

func TestUpdateProject(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	bl := NewBackingLogic(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "houdini")
	backer := testutil.CreateUser(t, db, "alice")
	in := newProjectInput(100000,
		RewardInput{Title: "Backed tier", Amount: 1000, IsLimited: true, QuantityLimit: int64Ptr(5)},
		RewardInput{Title: "Unbacked tier", Amount: 2000},
	)
	in.Faqs = []FaqInput{{Question: "Old?", Answer: "Yes"}}
	project := mustCreateProject(t, pl, creator, in)
	backedID := project.Rewards[0].Id
	mustPledge(t, bl, backer, &PledgeInput{ProjectId: project.Id, RewardId: backedID, Amount: 1000})
	mustPledge(t, bl, testutil.CreateUser(t, db, "bob"), &PledgeInput{ProjectId: project.Id, RewardId: backedID, Amount: 1500})

	t.Run("forbidden for non creator", func(t *testing.T) {
		_, err := pl.Update(ctx, project.Id, newProjectInput(1), backer)
		assertBizError(t, err, ErrForbidden, "")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := pl.Update(ctx, uuid.NewString(), newProjectInput(1), creator)
		assertBizError(t, err, ErrNotFound, DetailProjectNotFound)
	})

	t.Run("cannot remove backed reward", func(t *testing.T) {
		upd := newProjectInput(1)
		upd.Rewards = []RewardInput{{Title: "Fresh", Amount: 100}}
		_, err := pl.Update(ctx, project.Id, upd, creator)
		assertBizError(t, err, ErrConflict, "")
	})

	t.Run("cannot drop limit below backers", func(t *testing.T) {
		upd := newProjectInput(1)
		upd.Rewards = []RewardInput{
			{Id: backedID, Title: "Backed tier", Amount: 1000, IsLimited: true, QuantityLimit: int64Ptr(1)},
			{Id: project.Rewards[1].Id, Title: "Unbacked tier", Amount: 2000},
		}
		_, err := pl.Update(ctx, project.Id, upd, creator)
		assertBizError(t, err, ErrConflict, "")

		upd.Rewards[0].QuantityLimit = int64Ptr(2)
		if _, err := pl.Update(ctx, project.Id, upd, creator); err != nil {
			t.Fatalf("limit equal to backers should pass: %v", err)
		}
	})

	t.Run("replaces fields rewards and faqs", func(t *testing.T) {
		upd := newProjectInput(999999)
		upd.Title = "Floating Card Deck v2"
		upd.Category = "props"
		upd.Rewards = []RewardInput{
			{Title: "New first tier", Amount: 300},
			{Id: backedID, Title: "Renamed tier", Amount: 1200, IsLimited: true, QuantityLimit: int64Ptr(10)},
		}
		upd.Faqs = []FaqInput{{Question: "New?", Answer: "Yes"}, {Question: "Really?", Answer: "Yes"}}

		got, err := pl.Update(ctx, project.Id, upd, creator)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Title != "Floating Card Deck v2" || got.Category != "props" {
			t.Errorf("fields = %s/%s", got.Title, got.Category)
		}
		if got.FundingGoal != 100000 {
			t.Errorf("funding goal changed to %d", got.FundingGoal)
		}
		if got.CurrentFunding != 2500 || got.BackersCount != 2 {
			t.Errorf("counters = %d/%d, want 2500/2", got.CurrentFunding, got.BackersCount)
		}
		if len(got.Rewards) != 2 {
			t.Fatalf("rewards = %d, want 2", len(got.Rewards))
		}
		if got.Rewards[0].Title != "New first tier" || got.Rewards[0].Id == backedID {
			t.Errorf("first reward = %+v", got.Rewards[0])
		}
		kept := got.Rewards[1]
		if kept.Id != backedID || kept.Title != "Renamed tier" || kept.BackersCount != 2 || *kept.QuantityLimit != 10 {
			t.Errorf("kept reward = %+v", kept)
		}
		if len(got.Faqs) != 2 || got.Faqs[0].Question != "New?" {
			t.Errorf("faqs = %+v", got.Faqs)
		}
	})

	t.Run("foreign reward id", func(t *testing.T) {
		upd := newProjectInput(1)
		upd.Rewards = []RewardInput{
			{Id: backedID, Title: "Renamed tier", Amount: 1200},
			{Id: uuid.NewString(), Title: "Ghost", Amount: 1},
		}
		_, err := pl.Update(ctx, project.Id, upd, creator)
		assertBizError(t, err, ErrValidation, "")
	})
}

func TestDeleteProject(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	bl := NewBackingLogic(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "houdini")
	backer := testutil.CreateUser(t, db, "alice")

	t.Run("without backers", func(t *testing.T) {
		in := newProjectInput(1000, RewardInput{Title: "Poster", Amount: 100})
		in.Faqs = []FaqInput{{Question: "Q", Answer: "A"}}
		project := mustCreateProject(t, pl, creator, in)
		if _, err := pl.AppendComment(ctx, project.Id, "Nice", backer); err != nil {
			t.Fatalf("AppendComment: %v", err)
		}

		assertBizError(t, pl.Delete(ctx, project.Id, backer), ErrForbidden, "")

		if err := pl.Delete(ctx, project.Id, creator); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		_, err := pl.Get(ctx, project.Id)
		assertBizError(t, err, ErrNotFound, DetailProjectNotFound)

		created, err := pl.ListCreated(ctx, creator.Id)
		if err != nil {
			t.Fatalf("ListCreated: %v", err)
		}
		for _, p := range created {
			if p.Id == project.Id {
				t.Errorf("deleted project still listed for creator")
			}
		}
		if n := testutil.CountRows(t, db, &model.UserProjectModel{}, "project_id = ?", project.Id); n != 0 {
			t.Errorf("user project rows = %d, want 0", n)
		}
		for _, child := range []interface{}{&model.RewardModel{}, &model.ProjectFaqModel{}, &model.ProjectCommentModel{}} {
			if n := testutil.CountRows(t, db, child, "project_id = ?", project.Id); n != 0 {
				t.Errorf("%T rows = %d, want 0", child, n)
			}
		}
	})

	t.Run("with a backer", func(t *testing.T) {
		project := mustCreateProject(t, pl, creator, newProjectInput(100000))
		mustPledge(t, bl, backer, &PledgeInput{ProjectId: project.Id, Amount: 500})

		assertBizError(t, pl.Delete(ctx, project.Id, creator), ErrConflict, "")
		if _, err := pl.Get(ctx, project.Id); err != nil {
			t.Errorf("project should remain: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		assertBizError(t, pl.Delete(ctx, uuid.NewString(), creator), ErrNotFound, DetailProjectNotFound)
	})
}

func TestPublishProject(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "houdini")
	in := newProjectInput(1000)
	in.Draft = true
	project := mustCreateProject(t, pl, creator, in)
	if project.Status != model.ProjectStatusDraft {
		t.Fatalf("status = %s, want draft", project.Status)
	}

	got, err := pl.Publish(ctx, project.Id, creator)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.Status != model.ProjectStatusActive {
		t.Errorf("status = %s, want active", got.Status)
	}

	_, err = pl.Publish(ctx, project.Id, creator)
	assertBizError(t, err, ErrRejected, "")
}

func TestStoryUpdatesAndComments(t *testing.T) {
	db := testutil.NewDB(t)
	pl := NewProjectLogic(db, nil)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "houdini")
	fan := testutil.CreateUser(t, db, "alice")
	project := mustCreateProject(t, pl, creator, newProjectInput(1000))

	t.Run("story is sanitized", func(t *testing.T) {
		got, err := pl.UpdateStory(ctx, project.Id, `<p>It began <em>backstage</em></p><script>alert(1)</script>`, creator)
		if err != nil {
			t.Fatalf("UpdateStory: %v", err)
		}
		if got.Story != "<p>It began <em>backstage</em></p>" {
			t.Errorf("story = %q", got.Story)
		}

		_, err = pl.UpdateStory(ctx, project.Id, "mine now", fan)
		assertBizError(t, err, ErrForbidden, "")
	})

	t.Run("updates are creator only", func(t *testing.T) {
		_, err := pl.AppendUpdate(ctx, project.Id, &UpdateInput{Title: "Hi", Content: "Hello"}, fan)
		assertBizError(t, err, ErrForbidden, "")

		_, err = pl.AppendUpdate(ctx, project.Id, &UpdateInput{Title: "Hi"}, creator)
		assertBizError(t, err, ErrValidation, "")

		update, err := pl.AppendUpdate(ctx, project.Id, &UpdateInput{
			Title:   "Prototype ready",
			Content: "The deck floats",
			Images:  []string{"https://example.com/deck.png"},
		}, creator)
		if err != nil {
			t.Fatalf("AppendUpdate: %v", err)
		}
		if update.Id == "" || update.CreatedAt.IsZero() || len(update.Images) != 1 || update.Videos == nil {
			t.Errorf("update = %+v", update)
		}

		rd, err := pl.AppendUpdate(ctx, project.Id, &UpdateInput{Title: "R&D <i>notes</i>", Content: "Tom & Jerry's"}, creator)
		if err != nil {
			t.Fatalf("AppendUpdate: %v", err)
		}
		if rd.Title != "R&D notes" || rd.Content != "Tom & Jerry's" {
			t.Errorf("update text = %q / %q", rd.Title, rd.Content)
		}
	})

	t.Run("comments from any user", func(t *testing.T) {
		comment, err := pl.AppendComment(ctx, project.Id, "<b>Amazing</b> trick", fan)
		if err != nil {
			t.Fatalf("AppendComment: %v", err)
		}
		if comment.Content != "Amazing trick" || comment.UserName != "alice" {
			t.Errorf("comment = %+v", comment)
		}

		plain := `Tom & Jerry's "best" trick, 2 < 3`
		comment, err = pl.AppendComment(ctx, project.Id, plain, fan)
		if err != nil {
			t.Fatalf("AppendComment: %v", err)
		}
		if comment.Content != plain {
			t.Errorf("content = %q, want %q", comment.Content, plain)
		}

		_, err = pl.AppendComment(ctx, project.Id, "<script>alert(1)</script>", fan)
		assertBizError(t, err, ErrValidation, "")

		_, err = pl.AppendComment(ctx, uuid.NewString(), "hello", fan)
		assertBizError(t, err, ErrNotFound, DetailProjectNotFound)
	})

	got, err := pl.Get(ctx, project.Id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Updates) != 2 || got.Updates[0].Images[0] != "https://example.com/deck.png" {
		t.Errorf("updates = %+v", got.Updates)
	}
	if len(got.Comments) != 2 || got.Comments[1].Content != `Tom & Jerry's "best" trick, 2 < 3` {
		t.Errorf("comments = %+v", got.Comments)
	}
}
