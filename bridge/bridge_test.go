/*
 * MailBridge - Copyright (C) 2026 The MailBridge authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 2, and only
 * version 2 as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 59 Temple Place, Suite 330, Boston, MA  02111-1307  USA
 */

package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/hijiri/mailbridge/checkpoint"
	mock_checkpoint "github.com/hijiri/mailbridge/checkpoint/mocks"
	"github.com/hijiri/mailbridge/mailbox"
	mock_mailbox "github.com/hijiri/mailbridge/mailbox/mocks"
	"github.com/hijiri/mailbridge/notify"
	mock_notify "github.com/hijiri/mailbridge/notify/mocks"
)

func testMessages() []mailbox.Message {
	base := time.Date(2016, 5, 11, 10, 0, 0, 0, time.UTC)
	return []mailbox.Message{
		{UID: 1, Date: base, From: "one@example.com", Subject: "first", Body: "b1"},
		{UID: 2, Date: base.Add(time.Hour), From: "two@example.com", Subject: "second", Body: "b2"},
		{UID: 3, Date: base.Add(2 * time.Hour), From: "three@example.com", Subject: "third", Body: "b3"},
	}
}

func marker(m mailbox.Message) checkpoint.Checkpoint {
	return checkpoint.Checkpoint{Timestamp: m.Date, UID: m.UID}
}

func newTestBridge(t *testing.T) (*gomock.Controller, *mock_checkpoint.MockStore, *mock_mailbox.MockReader, *mock_notify.MockGateway, *Bridge) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mock_checkpoint.NewMockStore(ctrl)
	reader := mock_mailbox.NewMockReader(ctrl)
	gateway := mock_notify.NewMockGateway(ctrl)

	b, err := New(&Config{
		Store:         store,
		Reader:        reader,
		Gateway:       gateway,
		CheckInterval: time.Hour,
	})
	assert.NoError(t, err)

	return ctrl, store, reader, gateway, b
}

func TestRunCycleDeliversAllInOrder(t *testing.T) {
	_, store, reader, gateway, b := newTestBridge(t)

	messages := testMessages()

	store.EXPECT().Load().Return(nil, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).Return(messages, nil)

	gomock.InOrder(
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[0])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[0]))).Return(nil),
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[1])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[1]))).Return(nil),
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[2])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[2]))).Return(nil),
	)

	res, err := b.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, CycleResult{Fetched: 3, Delivered: 3}, res)
}

func payloadFor(m mailbox.Message) notify.Payload {
	return notify.Format(m, notify.DefaultPreviewLength)
}

func TestRunCycleStopsAtFailedDelivery(t *testing.T) {
	_, store, reader, gateway, b := newTestBridge(t)

	messages := testMessages()

	store.EXPECT().Load().Return(nil, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).Return(messages, nil)

	gomock.InOrder(
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[0])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[0]))).Return(nil),
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[1])).Return(notify.ErrUnreachable),
	)

	// Messages 2 and 3 must not be attempted; the checkpoint stays at
	// message 1's marker.
	res, err := b.RunCycle(context.Background())
	assert.ErrorIs(t, err, notify.ErrUnreachable)
	assert.Equal(t, CycleResult{Fetched: 3, Delivered: 1}, res)
}

func TestRunCycleResumesFromMarker(t *testing.T) {
	_, store, reader, gateway, b := newTestBridge(t)

	messages := testMessages()
	cp := marker(messages[0])

	store.EXPECT().Load().Return(&cp, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Eq(&cp)).Return(messages[1:], nil)

	gomock.InOrder(
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[1])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[1]))).Return(nil),
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[2])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[2]))).Return(nil),
	)

	res, err := b.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, CycleResult{Fetched: 2, Delivered: 2}, res)
}

func TestRunCycleLoadFailureAbortsCycle(t *testing.T) {
	_, store, _, _, b := newTestBridge(t)

	store.EXPECT().Load().Return(nil, errors.New("disk on fire"))

	// Neither fetch nor delivery may happen.
	res, err := b.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, CycleResult{}, res)
}

func TestRunCycleSaveFailureStopsBatch(t *testing.T) {
	_, store, reader, gateway, b := newTestBridge(t)

	messages := testMessages()

	store.EXPECT().Load().Return(nil, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).Return(messages, nil)

	gomock.InOrder(
		gateway.EXPECT().Deliver(gomock.Any(), payloadFor(messages[0])).Return(nil),
		store.EXPECT().Save(gomock.Eq(marker(messages[0]))).Return(errors.New("disk full")),
	)

	res, err := b.RunCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, CycleResult{Fetched: 3, Delivered: 0}, res)
}

func TestRunCycleNoNewMessages(t *testing.T) {
	_, store, reader, _, b := newTestBridge(t)

	store.EXPECT().Load().Return(nil, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).Return(nil, nil)

	res, err := b.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, CycleResult{}, res)
}

func TestRunCycleStartFromNowSeedsCheckpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mock_checkpoint.NewMockStore(ctrl)
	reader := mock_mailbox.NewMockReader(ctrl)
	gateway := mock_notify.NewMockGateway(ctrl)

	b, err := New(&Config{
		Store:        store,
		Reader:       reader,
		Gateway:      gateway,
		StartFromNow: true,
	})
	assert.NoError(t, err)

	var seeded checkpoint.Checkpoint
	store.EXPECT().Load().Return(nil, nil)
	store.EXPECT().Save(gomock.Any()).DoAndReturn(func(cp checkpoint.Checkpoint) error {
		seeded = cp
		return nil
	})

	// No fetch, no delivery on the seeding run.
	res, err := b.RunCycle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, CycleResult{}, res)
	assert.False(t, seeded.Timestamp.IsZero())
	assert.Equal(t, uint32(0), seeded.UID)
}

func TestRunCycleStartFromNowWithExistingCheckpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mock_checkpoint.NewMockStore(ctrl)
	reader := mock_mailbox.NewMockReader(ctrl)
	gateway := mock_notify.NewMockGateway(ctrl)

	b, err := New(&Config{
		Store:        store,
		Reader:       reader,
		Gateway:      gateway,
		StartFromNow: true,
	})
	assert.NoError(t, err)

	cp := checkpoint.Checkpoint{Timestamp: time.Unix(1000, 0), UID: 5}
	store.EXPECT().Load().Return(&cp, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Eq(&cp)).Return(nil, nil)

	_, err = b.RunCycle(context.Background())
	assert.NoError(t, err)
}

func TestRunStopsOnAuthError(t *testing.T) {
	_, store, reader, _, b := newTestBridge(t)

	store.EXPECT().Load().Return(nil, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).Return(nil, mailbox.ErrAuth)

	err := b.Run(context.Background())
	assert.ErrorIs(t, err, mailbox.ErrAuth)
}

func TestRunContinuesAfterTransientError(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := mock_checkpoint.NewMockStore(ctrl)
	reader := mock_mailbox.NewMockReader(ctrl)
	gateway := mock_notify.NewMockGateway(ctrl)

	b, err := New(&Config{
		Store:         store,
		Reader:        reader,
		Gateway:       gateway,
		CheckInterval: time.Millisecond,
	})
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	// First cycle fails with a connection error, second succeeds and
	// shuts the loop down.
	gomock.InOrder(
		store.EXPECT().Load().Return(nil, nil),
		reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).Return(nil, mailbox.ErrConnection),
		store.EXPECT().Load().Return(nil, nil),
		reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).DoAndReturn(
			func(ctx context.Context, cp *checkpoint.Checkpoint) ([]mailbox.Message, error) {
				cancel()
				return nil, nil
			}),
	)

	err = b.Run(ctx)
	assert.NoError(t, err)
}

func TestRunExitsOnCancel(t *testing.T) {
	_, store, reader, _, b := newTestBridge(t)

	ctx, cancel := context.WithCancel(context.Background())

	store.EXPECT().Load().Return(nil, nil)
	reader.EXPECT().FetchSince(gomock.Any(), gomock.Nil()).DoAndReturn(
		func(ctx context.Context, cp *checkpoint.Checkpoint) ([]mailbox.Message, error) {
			cancel()
			return nil, nil
		})

	err := b.Run(ctx)
	assert.NoError(t, err)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}
