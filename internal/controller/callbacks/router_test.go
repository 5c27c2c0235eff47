package callbacks

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
)

func TestParseIDFromCallback(t *testing.T) {
	id := uuid.New()

	got, err := ParseIDFromCallback(ConfirmBooking + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, data := range []string{"confirm", "confirm:42", "confirm:"} {
		_, err := ParseIDFromCallback(data)
		assert.ErrorIs(t, err, ErrInvalidFormat, data)
	}
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	id := uuid.New().String()
	for _, prefix := range []string{ScheduleResource, SuggestResource, ConfirmBooking, RejectBooking} {
		assert.LessOrEqual(t, len(prefix+id), 64)
	}
}

func TestApprovalKeyboard(t *testing.T) {
	id := uuid.New()
	kb := ApprovalKeyboard(id)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, ConfirmBooking+id.String(), kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, RejectBooking+id.String(), kb.InlineKeyboard[0][1].CallbackData)
}

func TestErrorMessage(t *testing.T) {
	blackout := &model.RejectionError{Reason: model.ReasonBlackout}
	assert.Equal(t, "❌ Время попадает в закрытый период", ErrorMessage(blackout))
	assert.Equal(t, "❌ Бронирование уже обработано", ErrorMessage(&model.TransitionError{}))
	assert.Equal(t, "❌ Произошла ошибка", ErrorMessage(errors.New("boom")))
}
