// Package scraper turns dissimilar metadata and artwork sources into one
// uniform, fallible operation per ROM.
//
// Sources are wrapped in nodes implementing MetadataSource or AssetSource and
// arranged into ordered fallback chains by a ChainBuilder. A node either
// applies a result or reports NotFound/Failed, which moves the chain on to
// the next node. Online nodes share a CandidateCache so one ROM is only
// disambiguated once per source while its asset kinds are resolved.
package scraper
