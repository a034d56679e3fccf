package testutil

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"github.com/rms/backend/internal/interfaces/http/dto"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{"rmas", "rma_lines", "audit_events", "users", "user_branch_roles", "rma_attachments", "merp_integration_logs"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var count int64
	require.NoError(t, db.Model(&models.RMAModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDoRequest(t *testing.T) {
	r := gin.New()
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "Malformed request body"))
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(body))
	})

	w := DoRequest(r, http.MethodPost, "/echo", map[string]any{"part_number": "PN-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, DecodeResponse(t, w).Success)
	assert.Equal(t, "PN-1", DecodeData[map[string]string](t, w)["part_number"])

	w = DoRequest(r, http.MethodPost, "/echo", `{"part_number":`)
	AssertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)

	RunRouteCases(t, func(*testing.T) http.Handler { return r }, []RouteCase{
		{Name: "valid body", Method: http.MethodPost, Path: "/echo", Body: map[string]int{"qty": 2}, ExpectedStatus: http.StatusOK},
		{Name: "empty body", Method: http.MethodPost, Path: "/echo", Body: "", ExpectedStatus: http.StatusBadRequest, ExpectedCode: dto.ErrCodeInvalidJSON},
	})
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.NotEqual(t, TestBranchID(), OtherBranchID())
}

func TestNewActor(t *testing.T) {
	agent := NewActor("agent", identity.RoleReturnsAgent, TestBranchID())
	assert.True(t, agent.CanSeeBranch(TestBranchID()))
	assert.False(t, agent.CanSeeBranch(OtherBranchID()))

	admin := NewAdmin("root")
	assert.True(t, admin.CanSeeBranch(OtherBranchID()))
}
