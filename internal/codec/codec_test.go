package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Valid(t *testing.T) {
	req, err := Decode([]byte(`{"x":[1.0,2.5,-3],"scale":2.0}`))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2.5, -3}, req.Samples)
	require.NotNil(t, req.Scale)
	assert.Equal(t, float32(2), req.ScaleOrDefault())
}

func TestDecode_ScaleDefaults(t *testing.T) {
	for _, payload := range []string{`{"x":[3.0]}`, `{"x":[3.0],"scale":null}`} {
		req, err := Decode([]byte(payload))
		require.NoError(t, err, payload)
		assert.Nil(t, req.Scale, payload)
		assert.Equal(t, DefaultScale, req.ScaleOrDefault(), payload)
	}
}

func TestDecode_EmptySamples(t *testing.T) {
	req, err := Decode([]byte(`{"x":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, req.Samples)
	assert.Len(t, req.Samples, 0)
}

func TestDecode_OutOfRangeNumbersBecomeInfinite(t *testing.T) {
	req, err := Decode([]byte(`{"x":[1e40,-1e40,3.4028235e38,1e-50],"scale":1e39}`))
	require.NoError(t, err)

	require.Len(t, req.Samples, 4)
	assert.True(t, math.IsInf(float64(req.Samples[0]), 1))
	assert.True(t, math.IsInf(float64(req.Samples[1]), -1))
	assert.Equal(t, float32(math.MaxFloat32), req.Samples[2], "rounds down to the largest float32")
	assert.Equal(t, float32(0), req.Samples[3])
	assert.True(t, math.IsInf(float64(req.ScaleOrDefault()), 1))
}

func TestDecode_TypeErrorNamesField(t *testing.T) {
	_, err := Decode([]byte(`{"x":[1],"scale":"two"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"scale" must be a number or null`)
	assert.NotContains(t, err.Error(), "invalid JSON")

	_, err = Decode([]byte(`[1,2,3]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a JSON object")
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"x": not-a-number}`,
		"empty":           ``,
		"missing x":       `{"scale":1.0}`,
		"null x":          `{"x":null}`,
		"x not array":     `{"x":3}`,
		"string element":  `{"x":[1,"2"]}`,
		"null element":    `{"x":[1,null]}`,
		"string scale":    `{"x":[1],"scale":"two"}`,
		"beyond float64":  `{"x":[1e400]}`,
		"unknown field":   `{"x":[1],"bias":0.5}`,
		"trailing data":   `{"x":[1]} {"x":[2]}`,
		"top-level array": `[1,2,3]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			require.Error(t, err)
			var de *DecodeError
			assert.True(t, errors.As(err, &de), "expected DecodeError, got %T", err)
		})
	}
}

func TestEncode_BatchEnvelope(t *testing.T) {
	body, err := Encode(Response{
		Output:       []float32{0.5, 2},
		AlgoVersion:  "0.1.0",
		ElapsedNanos: 42,
	}, BatchEnvelope)
	require.NoError(t, err)

	want := "{\n" +
		"  \"y\": [\n" +
		"    0.5,\n" +
		"    2\n" +
		"  ],\n" +
		"  \"algoVersion\": \"0.1.0\",\n" +
		"  \"elapsedNs\": 42\n" +
		"}"
	assert.Equal(t, want, string(body))
}

func TestEncode_ServiceEnvelope(t *testing.T) {
	body, err := Encode(Response{
		Output:       []float32{0.5},
		AlgoVersion:  "0.1.0",
		ElapsedNanos: 42,
	}, ServiceEnvelope)
	require.NoError(t, err)
	assert.Equal(t, `{"y":[0.5],"algoVersion":"0.1.0"}`, string(body))
}

func TestEncode_NilOutputIsEmptyArray(t *testing.T) {
	body, err := Encode(Response{AlgoVersion: "v"}, ServiceEnvelope)
	require.NoError(t, err)
	assert.Equal(t, `{"y":[],"algoVersion":"v"}`, string(body))
}

func TestEncode_RejectsNonFinite(t *testing.T) {
	for _, v := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		_, err := Encode(Response{Output: []float32{1, v}}, BatchEnvelope)
		var ee *EncodeError
		require.True(t, errors.As(err, &ee), "value %v", v)
	}
}

func TestEncode_UnknownEnvelope(t *testing.T) {
	_, err := Encode(Response{}, Envelope(9))
	var ee *EncodeError
	assert.True(t, errors.As(err, &ee))
}
