package steps

import (
	"time"

	"github.com/cucumber/godog"
)

func (fc *FeatureContext) theCoopTemperatureIs(value int) error {
	if fc.device == nil {
		return godog.ErrSkip
	}
	fc.device.SetTemp(uint32(value))
	return nil
}

func (fc *FeatureContext) theBusFailsTheNextWrites(n int) error {
	if fc.device == nil {
		return godog.ErrSkip
	}
	fc.device.FailNextWrites(n)
	return nil
}

func (fc *FeatureContext) theBusFailsTheNextReads(n int) error {
	if fc.device == nil {
		return godog.ErrSkip
	}
	fc.device.FailNextReads(n)
	return nil
}

func (fc *FeatureContext) iCommandTheDoorTo(dir string) error {
	response, err := fc.apiDriver.CommandDoor(dir)
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) iResetTheCoop() error {
	response, err := fc.apiDriver.Reset()
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) iEcho(data string) error {
	response, err := fc.apiDriver.Echo(data)
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) iGetTheReading(kind string) error {
	response, err := fc.apiDriver.GetReading(kind, false)
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) iGetAFreshReading(kind string) error {
	response, err := fc.apiDriver.GetReading(kind, true)
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) iGetTheCoopStatus() error {
	response, err := fc.apiDriver.GetStatus()
	if err != nil {
		return err
	}
	fc.response = response

	var data map[string]any
	err = fc.decodeBody(response.Body, &data)
	fc.require.NoError(err)
	fc.responseData = data
	return nil
}

func (fc *FeatureContext) iGetTheOpeningTime() error {
	response, err := fc.apiDriver.GetOpeningTime()
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) iGetTheClosingTime() error {
	response, err := fc.apiDriver.GetClosingTime()
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) theStatusFieldShouldBe(field string, expected int64) error {
	value, ok := fc.responseData[field].(float64)
	fc.require.True(ok, "status field %s should be a number", field)
	fc.require.Equal(expected, int64(value))
	return nil
}

func (fc *FeatureContext) theStatusFlagShouldBe(field, expected string) error {
	value, ok := fc.responseData[field].(bool)
	fc.require.True(ok, "status field %s should be a boolean", field)
	fc.require.Equal(expected == "true", value)
	return nil
}

func (fc *FeatureContext) theResponseShouldBeATimeAt(hour, minute int) error {
	var value string
	err := fc.decodeBody(fc.response.Body, &value)
	fc.require.NoError(err)

	at, err := time.Parse(time.RFC3339, value)
	fc.require.NoError(err)
	fc.require.Equal(hour, at.Hour())
	fc.require.Equal(minute, at.Minute())
	return nil
}
