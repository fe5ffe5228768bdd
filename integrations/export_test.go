package integrations

var NewCalendarClientWithService = newCalendarClientWithService
