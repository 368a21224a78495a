package service

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/queue"
	"github.com/iliyamo/token-manager/internal/repository"
)

const (
	msgGroupNotFound       = "Group not found"
	msgGroupNameRequired   = "Group name is required"
	msgParentGroupNotFound = "Parent group not found"
	msgGroupCycle          = "A group cannot be its own ancestor"
)

// GroupService manages the token group forest. Group names are not unique.
// Deleting a group removes its subtree together with the tokens filed under
// it and their values.
type GroupService struct {
	db     *sql.DB
	groups *repository.GroupRepo
	events EventPublisher
	log    *zap.Logger
}

func NewGroupService(db *sql.DB, events EventPublisher, log *zap.Logger) *GroupService {
	return &GroupService{
		db:     db,
		groups: repository.NewGroupRepo(db),
		events: events,
		log:    log.Named("groups"),
	}
}

// Tree returns every group nested under its parent, roots ordered by id.
func (s *GroupService) Tree(ctx context.Context) ([]*model.GroupNode, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return BuildGroupTree(groups), nil
}

// Get returns one group with its parent, children and tokens.
func (s *GroupService) Get(ctx context.Context, id uint64) (*model.GroupDetail, error) {
	g, err := s.groups.Get(ctx, id)
	if err != nil {
		return nil, translate(err, msgGroupNotFound, "")
	}
	return g, nil
}

func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*model.TokenGroup, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation(msgGroupNameRequired)
	}
	group := &model.TokenGroup{Name: name, ParentID: in.ParentID}

	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		groups := repository.NewGroupRepo(tx)
		if group.ParentID != nil {
			ok, err := groups.Exists(ctx, *group.ParentID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.NotFound(msgParentGroupNotFound)
			}
		}
		return groups.Create(ctx, group)
	})
	if err != nil {
		return nil, translate(err, "", "")
	}

	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityGroup, queue.ActionCreated, group.ID, group.Name))
	return group, nil
}

// Update renames and/or re-parents a group; cycles are rejected.
func (s *GroupService) Update(ctx context.Context, id uint64, in UpdateGroupInput) (*model.TokenGroup, error) {
	var group *model.TokenGroup
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		groups := repository.NewGroupRepo(tx)
		current, err := groups.Get(ctx, id)
		if err != nil {
			return translate(err, msgGroupNotFound, "")
		}
		g := current.TokenGroup
		group = &g
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation(msgGroupNameRequired)
			}
			group.Name = name
		}
		if in.ParentID.Set {
			if err := checkParent(ctx, groups, id, in.ParentID.Value, msgParentGroupNotFound, msgGroupCycle); err != nil {
				return err
			}
			group.ParentID = in.ParentID.Value
		}
		return groups.Update(ctx, group)
	})
	if err != nil {
		return nil, translate(err, msgGroupNotFound, "")
	}

	notify(ctx, s.events, s.log, queue.NewCatalogEvent(queue.EntityGroup, queue.ActionUpdated, group.ID, group.Name))
	return group, nil
}

// Delete removes a group, its descendants, their tokens and token values.
func (s *GroupService) Delete(ctx context.Context, id uint64) error {
	var removed []uint64
	err := repository.InTx(ctx, s.db, func(tx *sql.Tx) error {
		groups := repository.NewGroupRepo(tx)
		ids, err := groups.SubtreeIDs(ctx, id)
		if err != nil {
			return err
		}
		removed = ids
		return groups.DeleteSubtree(ctx, ids)
	})
	if err != nil {
		return translate(err, msgGroupNotFound, "")
	}

	s.log.Info("group deleted", zap.Uint64("group_id", id), zap.Int("subtree", len(removed)))
	ev := queue.NewCatalogEvent(queue.EntityGroup, queue.ActionDeleted, id, "")
	ev.Affected = removed
	notify(ctx, s.events, s.log, ev)
	return nil
}
