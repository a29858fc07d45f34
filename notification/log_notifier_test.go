package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/notification"
	"github.com/AntonStoeckl/library-lending-go/testutil/testdoubles"
)

func Test_LogNotifier_LogsEachNotification(t *testing.T) {
	// arrange
	logger := testdoubles.NewLoggerSpy()
	notifier, err := notification.NewLogNotifier(logger)
	require.NoError(t, err)

	// act
	notifier.Notify(context.Background(), "777", lending.MsgAccountNotActive)

	// assert
	records := logger.RecordsAt("info")
	require.Len(t, records, 1)

	readerID, ok := records[0].Arg("reader_id")
	assert.True(t, ok)
	assert.Equal(t, "777", readerID)

	message, ok := records[0].Arg("message")
	assert.True(t, ok)
	assert.Equal(t, lending.MsgAccountNotActive, message)
}

func Test_LogNotifier_RejectsNilLogger(t *testing.T) {
	_, err := notification.NewLogNotifier(nil)
	assert.ErrorIs(t, err, notification.ErrNilLogger)
}

func Test_MultiNotifier_FansOutInOrder(t *testing.T) {
	// arrange
	var order []string
	first := lending.NotifierFunc(func(_ context.Context, _ string, _ string) { order = append(order, "first") })
	second := lending.NotifierFunc(func(_ context.Context, _ string, _ string) { order = append(order, "second") })
	spy := testdoubles.NewNotifierSpy()

	notifier, err := notification.NewMultiNotifier(first, second, spy)
	require.NoError(t, err)

	// act
	notifier.Notify(context.Background(), "777", "You have borrowed the book: 1984")

	// assert
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, spy.CountOf("777", "You have borrowed the book: 1984"))
}

func Test_MultiNotifier_RejectsNilNotifier(t *testing.T) {
	_, err := notification.NewMultiNotifier(testdoubles.NewNotifierSpy(), nil)
	assert.ErrorIs(t, err, notification.ErrNilNotifier)
}

func Test_MultiNotifier_WithoutNotifiersIsNoop(t *testing.T) {
	notifier, err := notification.NewMultiNotifier()
	require.NoError(t, err)

	assert.NotPanics(t, func() { notifier.Notify(context.Background(), "777", "msg") })
}
