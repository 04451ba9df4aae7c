// Package sources provides the client used to read OParl council-information
// endpoints.
//
// An OParl endpoint is entered through its System object. The system links to
// a paginated list of Bodies, and every Body links to paginated lists of
// organizations, persons, meetings and papers. Lists are JSON envelopes of the
// form {"data": [...], "links": {"next": "..."}}.
//
// Architecture:
//   - Client: interface for fetching the system, the bodies, single resources
//     and single list pages
//   - OParlClient: the default implementation on top of httpclient.Client
//   - Walk: follows the next links of a list, detecting cycles and broken links
//   - ClientFactory: builds a Client per configured source, wiring credentials,
//     request pacing and the per-source concurrency bound
//
// Records are returned raw; normalization is left to the transform package.
package sources
