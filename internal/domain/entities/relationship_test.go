package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRelationship() *Relationship {
	start := NewDate(2020, time.January, 15)
	return &Relationship{
		SourceEntityID: "entity:person/ram-chandra-poudel",
		TargetEntityID: "entity:organization/political_party/nepali-congress",
		Type:           RelMemberOf,
		StartDate:      &start,
	}
}

func TestRelationship_ID(t *testing.T) {
	r := validRelationship()
	assert.Equal(t,
		"relationship:person/ram-chandra-poudel:organization/political_party/nepali-congress:MEMBER_OF",
		r.ID())
}

func TestRelationship_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Relationship)
		wantErr bool
	}{
		{
			name:   "valid relationship",
			mutate: func(r *Relationship) {},
		},
		{
			name:    "malformed source",
			mutate:  func(r *Relationship) { r.SourceEntityID = "person/ram-chandra-poudel" },
			wantErr: true,
		},
		{
			name:    "malformed target slug",
			mutate:  func(r *Relationship) { r.TargetEntityID = "entity:organization/NC" },
			wantErr: true,
		},
		{
			name:    "lowercase type token",
			mutate:  func(r *Relationship) { r.Type = "member_of" },
			wantErr: true,
		},
		{
			name: "end before start",
			mutate: func(r *Relationship) {
				end := NewDate(2019, time.December, 31)
				r.EndDate = &end
			},
			wantErr: true,
		},
		{
			name: "end equal to start",
			mutate: func(r *Relationship) {
				end := NewDate(2020, time.January, 15)
				r.EndDate = &end
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRelationship()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRelationship_ActiveOn(t *testing.T) {
	start := NewDate(2020, time.January, 15)
	end := NewDate(2022, time.June, 30)

	tests := []struct {
		name string
		rel  Relationship
		on   Date
		want bool
	}{
		{
			name: "within open interval",
			rel:  Relationship{StartDate: &start},
			on:   NewDate(2021, time.March, 1),
			want: true,
		},
		{
			name: "before start",
			rel:  Relationship{StartDate: &start},
			on:   NewDate(2019, time.March, 1),
			want: false,
		},
		{
			name: "on start date",
			rel:  Relationship{StartDate: &start},
			on:   start,
			want: true,
		},
		{
			name: "on end date",
			rel:  Relationship{StartDate: &start, EndDate: &end},
			on:   end,
			want: true,
		},
		{
			name: "after end",
			rel:  Relationship{StartDate: &start, EndDate: &end},
			on:   NewDate(2023, time.January, 1),
			want: false,
		},
		{
			name: "no start date never matches",
			rel:  Relationship{},
			on:   NewDate(2021, time.March, 1),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rel.ActiveOn(tt.on))
		})
	}
}

func TestRelationship_CurrentlyActive(t *testing.T) {
	end := NewDate(2022, time.June, 30)

	assert.True(t, (&Relationship{}).CurrentlyActive())
	assert.False(t, (&Relationship{EndDate: &end}).CurrentlyActive())
}

func TestRelationship_JSONRoundTrip(t *testing.T) {
	r := validRelationship()
	r.Attributes = map[string]any{"role": "president"}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, r.ID(), wire["id"])
	assert.Equal(t, "2020-01-15", wire["start_date"])

	var decoded Relationship
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.SourceEntityID, decoded.SourceEntityID)
	assert.Equal(t, r.TargetEntityID, decoded.TargetEntityID)
	assert.Equal(t, r.Type, decoded.Type)
	require.NotNil(t, decoded.StartDate)
	assert.True(t, decoded.StartDate.Equal(r.StartDate.Time))
}
