package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/flow/internal/models"
)

func TestArchiveClientCascadesToProjects(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")

	require.NoError(t, svc.ArchiveClient(ctx, client.ID))

	archivedClient, err := svc.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, archivedClient.IsArchived)

	archivedProject, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, archivedProject.IsArchived)
}

func TestUnarchiveClientLeavesProjectsArchived(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")

	require.NoError(t, svc.ArchiveClient(ctx, client.ID))
	require.NoError(t, svc.UnarchiveClient(ctx, client.ID))

	restored, err := svc.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)

	stillArchived, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, stillArchived.IsArchived)
}

func TestUnarchiveProjectBlockedWhileClientArchived(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")

	require.NoError(t, svc.ArchiveClient(ctx, client.ID))

	err := svc.UnarchiveProject(ctx, project.ID)
	require.True(t, IsPrecondition(err))

	// Parent restored first, then the child succeeds.
	require.NoError(t, svc.UnarchiveClient(ctx, client.ID))
	require.NoError(t, svc.UnarchiveProject(ctx, project.ID))
}

func TestUnarchiveEntryBlockedWhileChainArchived(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	require.NoError(t, svc.ArchiveTimeEntry(ctx, entry.ID))
	require.NoError(t, svc.ArchiveClient(ctx, client.ID))

	err := svc.UnarchiveTimeEntry(ctx, entry.ID)
	require.True(t, IsPrecondition(err))

	require.NoError(t, svc.UnarchiveClient(ctx, client.ID))
	require.NoError(t, svc.UnarchiveProject(ctx, project.ID))
	require.NoError(t, svc.UnarchiveTimeEntry(ctx, entry.ID))
}

func TestArchivedWorkIsNotBillable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	require.NoError(t, svc.ArchiveTimeEntry(ctx, entry.ID))

	items, err := svc.FindBillable(ctx, client.ID, "")
	require.NoError(t, err)
	assert.True(t, items.Empty())
}

func TestIsVisibleFoldsInParentChain(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	item := models.BillableItem{Kind: models.BillableTime, Entry: entry}

	visible, err := svc.IsVisible(ctx, item)
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, svc.ArchiveProject(ctx, project.ID))

	visible, err = svc.IsVisible(ctx, item)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestDeleteProjectRefusedWithBilledItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	invoice, err := svc.CreateInvoice(ctx, client.ID, []string{entry.ID}, nil)
	require.NoError(t, err)

	err = svc.DeleteProject(ctx, project.ID)
	require.True(t, IsPrecondition(err))

	// Deleting the invoice releases the entry and unblocks the delete.
	require.NoError(t, svc.DeleteInvoice(ctx, invoice.ID))
	require.NoError(t, svc.DeleteProject(ctx, project.ID))
}

func TestDeleteClientCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	client, project := seedClientProject(t, svc, "Acme", "100", "USD")
	entry := seedEntry(t, svc, project.ID, 1)

	require.NoError(t, svc.DeleteClient(ctx, client.ID))

	_, err := svc.GetClient(ctx, client.ID)
	require.True(t, IsNotFound(err))
	_, err = svc.GetProject(ctx, project.ID)
	require.True(t, IsNotFound(err))

	entries, err := svc.ListTimeEntries(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, entry.ID, e.ID)
	}
}
