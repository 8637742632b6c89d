package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
)

func TestClientService(t *testing.T) {
	f := newFixture(t)
	svc := NewClientService(f.set, f.trail, logger.NewNop())
	svc.clock = fixedClock
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, sam, &domain.CreateClientRequest{Name: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := svc.CreateClient(ctx, ann, &domain.CreateClientRequest{Name: "Globex", Email: strp("legal@globex.test")})
	require.NoError(t, err)
	assert.Equal(t, ann.ID, c.CreatedBy)

	// every role reads the directory
	list, err := svc.ListClients(ctx, domain.ListClientsParams{Search: strp("glob")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	// provenance does not restrict writes
	updated, err := svc.UpdateClient(ctx, bea, c.ID, &domain.UpdateClientRequest{Phone: strp("555-0100")})
	require.NoError(t, err)
	assert.Equal(t, "Globex", updated.Name)
	assert.Equal(t, "555-0100", *updated.Phone)

	assert.ErrorIs(t, svc.DeleteClient(ctx, tia, c.ID), ErrForbidden)
	require.NoError(t, svc.DeleteClient(ctx, admin, c.ID))

	_, err = svc.GetClient(ctx, c.ID)
	assert.ErrorIs(t, err, ErrClientNotFound)

	entries := f.entries(t)
	assert.Equal(t, 1, countAction(entries, domain.ActionCreate))
	assert.Equal(t, 1, countAction(entries, domain.ActionUpdate))
	assert.Equal(t, 1, countAction(entries, domain.ActionDelete))
}
