// Package axis provides the restricted positional paths used to address
// nodes of a document and of its temporal index.
//
// A path is a chain of steps from the document node down. Each step
// names a node kind and a 1-based index among the siblings sharing that
// kind (and, for elements, the qualified tag):
//
//	/                               the document node
//	/site[1]/page[2]                second page element of the site
//	/site[1]/page[2]/text()[1]      its first text child
//	/site[1]/comment()[3]           third comment under site
//	/site[1]/processing-instruction()[1]
//	/site[1]/page[2]/@id            attribute id of the page
//
// Paths are built from location strings with [Parse] or from a live
// node with [FromToken] and [FromAttr]. They are evaluated against a
// tagged node tree by the index.
package axis
