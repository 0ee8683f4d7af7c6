package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/fundmagic/internal/model"
	"gorm.io/gorm"
)

func int64Ptr(n int64) *int64 { return &n }

func boolPtr(b bool) *bool { return &b }

func newProjectInput(goal int64, rewards ...RewardInput) *ProjectInput {
	return &ProjectInput{
		Title:        "Floating Card Deck",
		Subtitle:     "A deck that hovers",
		Description:  "Cards that float above the table",
		Category:     "closeup",
		FundingGoal:  goal,
		DaysDuration: 30,
		Rewards:      rewards,
	}
}

func mustCreateProject(t *testing.T, pl *ProjectLogic, creator *model.UserModel, in *ProjectInput) *model.ProjectModel {
	t.Helper()

	p, err := pl.Create(context.Background(), in, creator)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func mustPledge(t *testing.T, bl *BackingLogic, backer *model.UserModel, in *PledgeInput) *PledgeResult {
	t.Helper()

	res, err := bl.Pledge(context.Background(), backer, in)
	if err != nil {
		t.Fatalf("pledge %d on %s: %v", in.Amount, in.ProjectId, err)
	}
	return res
}

// assertBizError 校验错误类型和说明，detail 为空时只校验类型
func assertBizError(t *testing.T, err error, kind error, detail string) {
	t.Helper()

	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want kind %v", err, kind)
	}
	var bizErr *BizError
	if !errors.As(err, &bizErr) {
		t.Fatalf("err = %T, want *BizError", err)
	}
	if detail != "" && bizErr.Detail != detail {
		t.Fatalf("detail = %q, want %q", bizErr.Detail, detail)
	}
}

func setColumn(t *testing.T, db *gorm.DB, m interface{}, id, column string, value interface{}) {
	t.Helper()

	if err := db.Model(m).Where("id = ?", id).Update(column, value).Error; err != nil {
		t.Fatalf("set %s: %v", column, err)
	}
}
