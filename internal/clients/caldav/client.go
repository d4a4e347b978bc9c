package caldav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

const (
	// Apple iCloud CalDAV endpoint
	DefaultiCloudURL = "https://caldav.icloud.com"

	productID = "-//VoiceAlarm//CalDAV//EN"
)

// Client publishes alarm events to a CalDAV calendar
type Client struct {
	baseURL    string
	username   string
	password   string
	calendarID string
	client     *caldav.Client
}

// NewClient creates a new CalDAV client
func NewClient(baseURL, username, password string) *Client {
	if baseURL == "" {
		baseURL = DefaultiCloudURL
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
	}
}

// IsConfigured returns true if the client has credentials
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != ""
}

// SetCalendarID sets the calendar path used when none is passed
func (c *Client) SetCalendarID(id string) {
	c.calendarID = id
}

func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// DiscoverCalendars returns all calendars of the current user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{
			ID:          cal.Path,
			DisplayName: cal.Name,
			URL:         cal.Path,
		})
	}
	return result, nil
}

func (c *Client) resolvePath(calendarPath string) (string, error) {
	if calendarPath == "" {
		calendarPath = c.calendarID
	}
	if calendarPath == "" {
		return "", fmt.Errorf("calendar path not specified")
	}
	return calendarPath, nil
}

func objectPath(calendarPath, uid string) string {
	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}
	return calendarPath + uid + ".ics"
}

// ListEvents returns every VEVENT in the calendar
func (c *Client) ListEvents(ctx context.Context, calendarPath string) ([]Event, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}
	calendarPath, err = c.resolvePath(calendarPath)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompEvent}},
		},
	}

	objects, err := client.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		if event, ok := ParseEvent(obj.Data); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

// PutEvent creates or replaces the event stored under its UID
func (c *Client) PutEvent(ctx context.Context, calendarPath string, event *Event) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	calendarPath, err = c.resolvePath(calendarPath)
	if err != nil {
		return err
	}
	if event.UID == "" {
		return fmt.Errorf("event has no UID")
	}

	cal := NewCalendar(time.Now(), *event)
	if _, err := client.PutCalendarObject(ctx, objectPath(calendarPath, event.UID), cal); err != nil {
		return fmt.Errorf("put event %s: %w", event.UID, err)
	}
	return nil
}

// DeleteEvent deletes an event by UID
func (c *Client) DeleteEvent(ctx context.Context, calendarPath, eventUID string) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	calendarPath, err = c.resolvePath(calendarPath)
	if err != nil {
		return err
	}

	if err := client.RemoveAll(ctx, objectPath(calendarPath, eventUID)); err != nil {
		return fmt.Errorf("delete event %s: %w", eventUID, err)
	}
	return nil
}

// ParseEvent reads the first VEVENT of a calendar
func ParseEvent(cal *ical.Calendar) (Event, bool) {
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}

		var event Event
		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			event.UID = prop.Value
		}
		if prop := comp.Props.Get(ical.PropSummary); prop != nil {
			event.Summary = prop.Value
		}
		if prop := comp.Props.Get(ical.PropDescription); prop != nil {
			event.Description = prop.Value
		}
		if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
			if t, err := prop.DateTime(time.UTC); err == nil {
				event.StartTime = t
			}
		}
		if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil {
			event.RRule = prop.Value
		}
		for _, child := range comp.Children {
			if child.Name == ical.CompAlarm {
				event.Reminder = true
			}
		}
		return event, event.UID != ""
	}
	return Event{}, false
}

// NewCalendar wraps events into a VCALENDAR. stamp becomes DTSTAMP.
func NewCalendar(stamp time.Time, events ...Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for i := range events {
		cal.Children = append(cal.Children, eventComponent(&events[i], stamp))
	}
	return cal
}

func eventComponent(event *Event, stamp time.Time) *ical.Component {
	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, event.UID)
	vevent.Props.SetText(ical.PropSummary, event.Summary)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())

	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}

	// "Local" is not a valid TZID
	start := event.StartTime
	if name := start.Location().String(); name == "Local" || name == "" {
		start = start.UTC()
	}
	vevent.Props.SetDateTime(ical.PropDateTimeStart, start)
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Minute))

	// SetText would escape the commas in BYDAY
	if event.RRule != "" {
		vevent.Props.Set(rawProp(ical.PropRecurrenceRule, event.RRule))
	}

	if event.Reminder {
		valarm := ical.NewComponent(ical.CompAlarm)
		valarm.Props.Set(rawProp(ical.PropAction, "DISPLAY"))
		valarm.Props.Set(rawProp(ical.PropTrigger, "PT0S"))
		valarm.Props.SetText(ical.PropDescription, event.Summary)
		vevent.Children = append(vevent.Children, valarm)
	}

	return vevent.Component
}

func rawProp(name, value string) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = value
	return prop
}

// EncodeCalendar writes cal in iCalendar format
func EncodeCalendar(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
