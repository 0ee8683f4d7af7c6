package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/fundmagic/internal/config"
	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/metrics"
	"github.com/blues/fundmagic/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// ProjectStatusJob 关闭已过截止时间的项目：达到目标为 funded，否则为 failed
type ProjectStatusJob struct {
	db       *gorm.DB
	interval time.Duration
	pool     *ants.Pool
}

// NewProjectStatusJob 创建项目状态任务
func NewProjectStatusJob(db *gorm.DB, cfg config.SchedulerConfig) (*ProjectStatusJob, error) {
	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &ProjectStatusJob{
		db:       db,
		interval: time.Duration(cfg.Interval) * time.Second,
		pool:     pool,
	}, nil
}

// GetName 获取任务名称
func (j *ProjectStatusJob) GetName() string {
	return "project_deadline_closer"
}

// GetSchedule 获取调度配置
func (j *ProjectStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ProjectStatusJob) Execute() {
	closed, err := j.CloseExpired(context.Background(), time.Now())
	if err != nil {
		logger.Error("Project status update finished with errors: %v", err)
	}
	if closed > 0 {
		logger.Info("Closed %d expired projects", closed)
	}
}

// CloseExpired 关闭 now 之前截止的进行中项目，返回成功关闭的数量
func (j *ProjectStatusJob) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	var projects []model.ProjectModel
	err := j.db.WithContext(ctx).
		Select("id").
		Where("status = ? AND end_date < ?", model.ProjectStatusActive, now).
		Find(&projects).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch expired projects: %w", err)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closed int
		errs   []error
	)
	record := func(ok bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			closed++
		}
	}

	for _, p := range projects {
		wg.Add(1)
		err := j.pool.Submit(func() {
			defer wg.Done()
			record(j.closeProject(ctx, &p))
		})
		if err != nil {
			wg.Done()
			record(false, fmt.Errorf("submit project %s: %w", p.Id, err))
		}
	}
	wg.Wait()

	return closed, errors.Join(errs...)
}

// closeProject 按最新金额一次性关闭仍在进行中的项目，不会覆盖已达成的锁定
func (j *ProjectStatusJob) closeProject(ctx context.Context, p *model.ProjectModel) (bool, error) {
	db := j.db.WithContext(ctx)

	res := db.Model(&model.ProjectModel{}).
		Where("id = ? AND status = ?", p.Id, model.ProjectStatusActive).
		Update("status", gorm.Expr("CASE WHEN current_funding >= funding_goal THEN ? ELSE ? END",
			model.ProjectStatusFunded, model.ProjectStatusFailed))
	if res.Error != nil {
		return false, fmt.Errorf("update project %s: %w", p.Id, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	// funded 和 failed 都是终态，回读的结果不会再变
	var closed model.ProjectModel
	if err := db.Select("status").First(&closed, "id = ?", p.Id).Error; err != nil {
		return true, fmt.Errorf("reload project %s: %w", p.Id, err)
	}

	metrics.ProjectsClosed.WithLabelValues(string(closed.Status), "deadline").Inc()
	logger.Debug("project %s closed as %s", p.Id, closed.Status)
	return true, nil
}

// Release 释放协程池
func (j *ProjectStatusJob) Release() {
	j.pool.Release()
}
