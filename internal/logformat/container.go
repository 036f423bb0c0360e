package logformat

import (
	"errors"
	"strings"

	"github.com/relvacode/iso8601"

	"github.com/V4T54L/hubformat/internal/domain"
)

const (
	// EventTypeContainer is written to nlf_01@48577 eventType for every
	// record built by ContainerType.
	EventTypeContainer = "ContainerType"

	// appNameSuffix marks an app name as derived from a container log.
	appNameSuffix = ".o"

	enqueuedTimeLayout = "2006-01-02T15:04Z07:00"

	timestampSourceEnqueued  = "timeEnqueued"
	timestampSourceGenerated = "generated"
)

// ContainerType maps ContainerLogV2 records exported from Azure Monitor to an
// event hub. Each accessor reads the event on demand; none depends on another.
type ContainerType struct {
	event              *domain.ParsedEvent
	hostnameAnnotation string
	appNameAnnotation  string
	// fallbackHostname is accepted for configuration compatibility. A present
	// hostname annotation always wins and an absent one is an error.
	fallbackHostname string
}

var _ domain.RecordMapper = (*ContainerType)(nil)

// NewContainerType returns a mapper over event. The annotation keys name the
// pod annotations that carry the hostname and the app name.
func NewContainerType(event *domain.ParsedEvent, hostnameAnnotation, appNameAnnotation, fallbackHostname string) *ContainerType {
	return &ContainerType{
		event:              event,
		hostnameAnnotation: hostnameAnnotation,
		appNameAnnotation:  appNameAnnotation,
		fallbackHostname:   fallbackHostname,
	}
}

// NewContainerMapperFactory binds the annotation configuration so that a
// mapper can be built per event.
func NewContainerMapperFactory(hostnameAnnotation, appNameAnnotation, fallbackHostname string) func(*domain.ParsedEvent) domain.RecordMapper {
	return func(event *domain.ParsedEvent) domain.RecordMapper {
		return NewContainerType(event, hostnameAnnotation, appNameAnnotation, fallbackHostname)
	}
}

func (c *ContainerType) AppName() (string, error) {
	name, err := c.requiredString("KubernetesMetadata", "podAnnotations", c.appNameAnnotation)
	if err != nil {
		return "", err
	}
	return name + appNameSuffix, nil
}

func (c *ContainerType) Facility() domain.Facility {
	return domain.FacilityAudit
}

func (c *ContainerType) Hostname() (string, error) {
	return c.requiredString("KubernetesMetadata", "podAnnotations", c.hostnameAnnotation)
}

// Msg returns the body re-serialized as compact JSON, keys in received order.
func (c *ContainerType) Msg() string {
	return c.event.CompactBody()
}

func (c *ContainerType) MsgID() string {
	return c.event.SystemProperties().Lookup("SequenceNumber")
}

func (c *ContainerType) Severity() domain.Severity {
	return domain.SeverityNotice
}

// Timestamp returns TimeGenerated as epoch milliseconds. The value must
// carry a time of day and a zone offset.
func (c *ContainerType) Timestamp() (int64, error) {
	raw, err := c.requiredString("TimeGenerated")
	if err != nil {
		return 0, err
	}
	if !hasZone(raw) {
		return 0, domain.NewInvalidFieldError("TimeGenerated", errors.New("timestamp has no zone offset"))
	}
	t, err := iso8601.ParseString(raw)
	if err != nil {
		return 0, domain.NewInvalidFieldError("TimeGenerated", err)
	}
	return t.UnixMilli(), nil
}

// SDElements returns the five structured-data elements of the record, or
// the first error encountered. It never returns a partial set.
func (c *ContainerType) SDElements() ([]domain.SDElement, error) {
	origin, err := c.originElement()
	if err != nil {
		return nil, err
	}

	return []domain.SDElement{
		c.partitionElement(),
		c.eventElement(),
		c.timestampSourceElement(),
		origin,
		domain.NewSDElement("nlf_01", domain.SDParam{Name: "eventType", Value: EventTypeContainer}),
	}, nil
}

func (c *ContainerType) partitionElement() domain.SDElement {
	pc := c.event.PartitionContext()
	return domain.NewSDElement("aer_02_partition",
		domain.SDParam{Name: "fully_qualified_namespace", Value: pc.Lookup("FullyQualifiedNamespace")},
		domain.SDParam{Name: "eventhub_name", Value: pc.Lookup("EventHubName")},
		domain.SDParam{Name: "partition_id", Value: pc.Lookup("PartitionId")},
		domain.SDParam{Name: "consumer_group", Value: pc.Lookup("ConsumerGroup")},
	)
}

func (c *ContainerType) eventElement() domain.SDElement {
	enqueued := ""
	if et := c.event.EnqueuedTime(); !et.IsStub() {
		enqueued = et.Time().UTC().Format(enqueuedTimeLayout)
	}

	return domain.NewSDElement("aer_02_event",
		domain.SDParam{Name: "offset", Value: c.event.Offset().Value()},
		domain.SDParam{Name: "enqueued_time", Value: enqueued},
		domain.SDParam{Name: "partition_key", Value: c.event.SystemProperties().Lookup("PartitionKey")},
		domain.SDParam{Name: "properties", Value: PropertiesJSON(c.event.Properties())},
	)
}

func (c *ContainerType) timestampSourceElement() domain.SDElement {
	source := timestampSourceGenerated
	if !c.event.EnqueuedTime().IsStub() {
		source = timestampSourceEnqueued
	}
	return domain.NewSDElement("aer_02", domain.SDParam{Name: "timestamp_source", Value: source})
}

func (c *ContainerType) originElement() (domain.SDElement, error) {
	resourceID, err := c.requiredString("_ResourceId")
	if err != nil {
		return domain.SDElement{}, err
	}
	subscription, clusterName, err := parseResourceID(resourceID)
	if err != nil {
		return domain.SDElement{}, domain.NewInvalidFieldError("_ResourceId", err)
	}

	namespace, err := c.requiredString("PodNamespace")
	if err != nil {
		return domain.SDElement{}, err
	}
	pod, err := c.requiredString("PodName")
	if err != nil {
		return domain.SDElement{}, err
	}
	containerID, err := c.requiredString("ContainerId")
	if err != nil {
		return domain.SDElement{}, err
	}

	return domain.NewSDElement("origin",
		domain.SDParam{Name: "subscription", Value: subscription},
		domain.SDParam{Name: "clusterName", Value: clusterName},
		domain.SDParam{Name: "namespace", Value: namespace},
		domain.SDParam{Name: "pod", Value: pod},
		domain.SDParam{Name: "containerId", Value: containerID},
	), nil
}

// hasZone reports whether the time part of an ISO8601 value ends in Z or
// a numeric offset.
func hasZone(raw string) bool {
	i := strings.IndexAny(raw, "Tt")
	if i < 0 {
		return false
	}
	clock := raw[i+1:]
	return strings.HasSuffix(clock, "Z") || strings.HasSuffix(clock, "z") || strings.ContainsAny(clock, "+-")
}

func (c *ContainerType) requiredString(path ...string) (string, error) {
	s, ok := lookupString(c.event.Body(), path...)
	if !ok {
		return "", domain.NewMissingFieldError(strings.Join(path, "."))
	}
	return s, nil
}
