package auditlog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueMarshalKinds(t *testing.T) {
	cases := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null(), `null`},
		{"bool", Bool(true), `true`},
		{"number", Number(3.5), `3.5`},
		{"int", Int(42), `42`},
		{"string", String("vpn"), `"vpn"`},
		{"sequence", Sequence(Int(1), String("a")), `[1,"a"]`},
		{"empty sequence", Sequence(), `[]`},
		{"mapping", Mapping(map[string]Value{"from": Null(), "to": Int(2)}), `{"from":null,"to":2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.value)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestValueUnmarshalArbitraryShape(t *testing.T) {
	const payload = `{"issue":{"from":"VPN down","to":"VPN still down"},"tags":["net",1,true,null]}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(payload), &v))
	require.Equal(t, KindMapping, v.Kind())

	issue, ok := v.Get("issue")
	require.True(t, ok)
	from, ok := issue.Get("from")
	require.True(t, ok)
	require.Equal(t, "VPN down", from.StringVal())

	tags, ok := v.Get("tags")
	require.True(t, ok)
	require.Equal(t, KindSequence, tags.Kind())
	items := tags.SequenceVal()
	require.Len(t, items, 4)
	require.Equal(t, "net", items[0].StringVal())
	require.Equal(t, float64(1), items[1].NumberVal())
	require.True(t, items[2].BoolVal())
	require.Equal(t, KindNull, items[3].Kind())
}

func TestValueRoundTrip(t *testing.T) {
	original := Mapping(map[string]Value{
		"status":      FromTo(String("NEW"), String("IN_PROGRESS")),
		"assigned_to": FromTo(Null(), Int(2)),
		"flags":       Sequence(Bool(false), Number(0.25)),
	})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, original.Equal(decoded))
}

func TestValueEqual(t *testing.T) {
	require.True(t, Null().Equal(Null()))
	require.False(t, Null().Equal(Bool(false)))
	require.False(t, Int(1).Equal(Int(2)))
	require.True(t, FromTo(Int(1), Int(2)).Equal(FromTo(Int(1), Int(2))))
	require.False(t, FromTo(Int(1), Int(2)).Equal(FromTo(Int(2), Int(1))))
	require.False(t, Sequence(Int(1)).Equal(Sequence(Int(1), Int(2))))
}

func TestValueKeysSorted(t *testing.T) {
	v := Mapping(map[string]Value{"status": Null(), "assigned_to": Null(), "issue": Null()})
	require.Equal(t, []string{"assigned_to", "issue", "status"}, v.Keys())
	require.Nil(t, String("x").Keys())
}
