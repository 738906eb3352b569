package steps

import (
	"strconv"
	"strings"
	"time"

	"coop-server/internal/infra/httpserver"
)

func (fc *FeatureContext) waitForDuration(duration string) error {
	d, err := time.ParseDuration(strings.TrimSpace(duration))
	if err != nil {
		ms, convErr := strconv.Atoi(strings.TrimSpace(duration))
		if convErr != nil {
			return err
		}
		d = time.Duration(ms) * time.Millisecond
	}

	time.Sleep(d)
	return nil
}

func (fc *FeatureContext) theResponseStatusCodeShouldBe(code int) error {
	fc.require.Equal(code, fc.response.StatusCode, "Unexpected status code")
	return nil
}

func (fc *FeatureContext) theResponseShouldBeTheNumber(expected int64) error {
	var value int64
	err := fc.decodeBody(fc.response.Body, &value)
	fc.require.NoError(err)
	fc.require.Equal(expected, value)
	return nil
}

func (fc *FeatureContext) theResponseErrorCodeShouldBe(code string) error {
	var data httpserver.ErrorResponse
	err := fc.decodeBody(fc.response.Body, &data)
	fc.require.NoError(err)
	fc.require.Equal(code, data.Code)
	fc.require.NotEmpty(data.Message)
	return nil
}

func (fc *FeatureContext) theResponseHeaderShouldBe(name, value string) error {
	fc.require.Equal(value, fc.response.Header.Get(name))
	return nil
}
