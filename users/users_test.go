package users_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/users"
	"github.com/stretchr/testify/require"
)

func TestUser_IconURL(t *testing.T) {
	t.Run("with icon", func(t *testing.T) {
		u := &users.User{Icon: iconName("abc.png")}
		require.Equal(t, "https://api.example.com/icons/abc.png", u.IconURL("https://api.example.com/"))
	})

	t.Run("without icon", func(t *testing.T) {
		require.Empty(t, (&users.User{}).IconURL("https://api.example.com"))
		require.Empty(t, (&users.User{Icon: iconName("")}).IconURL("https://api.example.com"))
	})

	t.Run("nil user", func(t *testing.T) {
		var u *users.User
		require.Empty(t, u.IconURL("https://api.example.com"))
	})
}

func TestUser_Clone(t *testing.T) {
	u := &users.User{ID: "user-1", Icon: iconName("a.png")}
	c := u.Clone()
	*c.Icon = "b.png"
	c.ID = "user-2"
	require.Equal(t, "a.png", *u.Icon)
	require.Equal(t, "user-1", u.ID)

	var nilUser *users.User
	require.Nil(t, nilUser.Clone())
}

func TestUser_DecodeMeResponse(t *testing.T) {
	t.Run("zone-less timestamp", func(t *testing.T) {
		body := `{"id":"u1","username":"john","email":"john.doe@example.com","icon":null,"date_created":"2024-05-01T10:00:00.123456","role":"admin"}`
		var u users.User
		require.NoError(t, json.Unmarshal([]byte(body), &u))
		require.Equal(t, "u1", u.ID)
		require.Nil(t, u.Icon)
		require.True(t, u.IsAdmin())
		require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), u.DateCreated.Time)
	})

	t.Run("rfc3339 timestamp", func(t *testing.T) {
		var u users.User
		require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","date_created":"2024-05-01T10:00:00+02:00"}`), &u))
		require.Equal(t, 8, u.DateCreated.UTC().Hour())
	})

	t.Run("bad timestamp", func(t *testing.T) {
		var u users.User
		require.Error(t, json.Unmarshal([]byte(`{"date_created":"yesterday"}`), &u))
		require.Error(t, json.Unmarshal([]byte(`{"date_created":12}`), &u))
	})
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(users.Timestamp{})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	b, err = json.Marshal(users.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Equal(t, `"2024-05-01T10:00:00Z"`, string(b))
}

func iconName(s string) *string {
	return &s
}
