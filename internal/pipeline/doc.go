// Package pipeline processes loaded items before they count as produced.
//
// Every item the crawler loads is passed to Pipeline.Emit, which runs it
// through the configured steps in order: validation, fingerprinting,
// export to the item file and storage in the crawl database. A step that
// returns ErrDropItem rejects the item, and the crawler counts it as failed
// instead of against the item budget.
package pipeline
