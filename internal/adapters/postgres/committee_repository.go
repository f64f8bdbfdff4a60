package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"gorm.io/gorm"
)

type committeeRepository struct {
	db *gorm.DB
}

type eligibleMemberRow struct {
	ChapterID      uuid.UUID `gorm:"column:chapter_id"`
	ProfessionalID uuid.UUID `gorm:"column:professional_id"`
	Status         string    `gorm:"column:status"`
	IsBlocked      bool      `gorm:"column:is_blocked"`
	JoinedAt       time.Time `gorm:"column:joined_at"`
	TotalPoints    int       `gorm:"column:total_points"`
}

func (r *committeeRepository) ListRotationCandidates(ctx context.Context, now time.Time, minMembers int) ([]ports.RotationCandidate, error) {
	db := r.db.WithContext(ctx)

	var due []uuid.UUID
	if err := db.Model(&committeeRotationModel{}).
		Group("chapter_id").
		Having("MAX(next_rotation_at) <= ?", now.UTC()).
		Order("chapter_id asc").
		Pluck("chapter_id", &due).Error; err != nil {
		return nil, err
	}

	var fresh []uuid.UUID
	rotated := db.Model(&committeeRotationModel{}).Select("chapter_id")
	if err := db.Model(&chapterMemberModel{}).
		Where("chapter_id NOT IN (?)", rotated).
		Group("chapter_id").
		Having("COUNT(*) >= ?", minMembers).
		Order("chapter_id asc").
		Pluck("chapter_id", &fresh).Error; err != nil {
		return nil, err
	}

	out := make([]ports.RotationCandidate, 0, len(due)+len(fresh))
	for _, id := range due {
		out = append(out, ports.RotationCandidate{ChapterID: id, HasRotation: true})
	}
	for _, id := range fresh {
		out = append(out, ports.RotationCandidate{ChapterID: id, HasRotation: false})
	}
	return out, nil
}

func (r *committeeRepository) ListEligibleMembers(ctx context.Context, chapterID uuid.UUID) ([]domain.ChapterMember, error) {
	var rows []eligibleMemberRow
	if err := r.db.WithContext(ctx).
		Table("chapter_members AS m").
		Select("m.chapter_id, m.professional_id, m.status, m.is_blocked, m.joined_at, COALESCE(p.total_points, 0) AS total_points").
		Joins("LEFT JOIN professionals p ON p.professional_id = m.professional_id").
		Where("m.chapter_id = ? AND m.status = ? AND m.is_blocked = ?", chapterID, string(domain.MemberStatusApproved), false).
		Order("total_points desc, m.joined_at asc, m.professional_id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ChapterMember, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ChapterMember{
			ChapterID: row.ChapterID, ProfessionalID: row.ProfessionalID, Status: domain.MemberStatus(row.Status),
			IsBlocked: row.IsBlocked, JoinedAt: row.JoinedAt.UTC(), TotalPoints: row.TotalPoints,
		})
	}
	return out, nil
}

func (r *committeeRepository) CurrentRotation(ctx context.Context, chapterID uuid.UUID) (domain.CommitteeRotation, error) {
	return latestRotation(r.db.WithContext(ctx), chapterID)
}

func latestRotation(db *gorm.DB, chapterID uuid.UUID) (domain.CommitteeRotation, error) {
	var rec committeeRotationModel
	if err := db.Where("chapter_id = ?", chapterID).
		Order("next_rotation_at desc").
		Take(&rec).Error; err != nil {
		return domain.CommitteeRotation{}, translateNotFound(err)
	}
	return toDomainCommitteeRotation(rec), nil
}

// InsertRotation re-reads the latest rotation inside the transaction; the unique
// (chapter_id, next_rotation_at) index catches writers that race past it.
func (r *committeeRepository) InsertRotation(ctx context.Context, rotation domain.CommitteeRotation, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := latestRotation(tx, rotation.ChapterID)
		switch {
		case err == nil:
			if rotation.IsFounding || !current.IsDue(rotation.CreatedAt) {
				return domain.ErrConflict
			}
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		rec := toCommitteeRotationModel(rotation)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		return (&outboxRepository{db: tx}).Enqueue(ctx, event)
	})
}

var _ ports.CommitteeRepository = (*committeeRepository)(nil)
