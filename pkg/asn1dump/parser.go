// Copyright 2025 The Bootsign Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package asn1dump turns a DER byte buffer into a flat, ordered sequence of
// structural nodes. Byte-level decoding is delegated to an external ASN.1
// dump tool ("openssl asn1parse -inform der" by default); this package
// re-parses the tool's line-oriented output. It deliberately recognizes only
// the handful of tags needed to locate an RSA key inside a certificate; it
// is not a general DER decoder.
package asn1dump

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bootsign/bootsign/internal/toolrun"
	"github.com/bootsign/bootsign/pkg/config"
	"github.com/bootsign/bootsign/pkg/logging"
)

// Tag is the coarse tag vocabulary the locator cares about. Everything else
// falls into TagOther.
type Tag int

const (
	// TagOther is any element not singled out below.
	TagOther Tag = iota
	// TagObject is an OBJECT IDENTIFIER element.
	TagObject
	// TagInteger is an INTEGER element.
	TagInteger
	// TagBitString is a BIT STRING element.
	TagBitString
)

// String returns the dump tool's label for the tag.
func (t Tag) String() string {
	switch t {
	case TagObject:
		return "OBJECT"
	case TagInteger:
		return "INTEGER"
	case TagBitString:
		return "BIT STRING"
	default:
		return "other"
	}
}

// Node is one decoded ASN.1 element. Nodes form a flat pre-order sequence;
// the tree is implicit in Depth (a node's subtree is the run of following
// nodes with greater depth).
type Node struct {
	// Offset is the byte offset of the element header in the buffer.
	Offset int
	// Depth is the nesting level.
	Depth int
	// HeaderLen is the length of the tag+length header in bytes.
	HeaderLen int
	// Length is the content length in bytes.
	Length int
	// Class is the dump tool's prim/cons marker.
	Class string
	// Label is the element's descriptive text as printed by the tool.
	Label string
	// Value is the decoded short scalar (an OID name, integer text, ...),
	// empty for constructed elements.
	Value string
}

// Tag classifies the node's label into the fixed vocabulary.
func (n Node) Tag() Tag {
	switch n.Label {
	case "OBJECT":
		return TagObject
	case "INTEGER":
		return TagInteger
	case "BIT STRING":
		return TagBitString
	default:
		return TagOther
	}
}

// MalformedStructureError reports dump output that does not match the
// expected line grammar, or a dump tool failure.
type MalformedStructureError struct {
	// Line is the offending output line, if any.
	Line string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *MalformedStructureError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("unexpected ASN.1 dump output %q", e.Line)
	}
	return fmt.Sprintf("ASN.1 dump failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *MalformedStructureError) Unwrap() error {
	return e.Cause
}

// Each dump line looks like
//
//	123:d=2  hl=2 l= 111 prim: INTEGER           :1234
//	234:d=9  hl=1 l=   1 cons: foo [ 3 ]
//
// The label field is at most 18 characters wide; an optional ':' separates
// it from the decoded scalar.
var lineRE = regexp.MustCompile(`^\s*(\d+):d=\s*(\d+)\s+hl=\s*(\d+)\s+l=\s*(\d+)\s+(\S+):\s+(.{1,18})\s*:?(.*)$`)

// ParseLines parses dump tool output lines into nodes. It is pure; the
// external tool has already been run. Blank lines are ignored. Any line not
// matching the grammar, or a depth that jumps by more than one level, yields
// a MalformedStructureError.
func ParseLines(lines []string) ([]Node, error) {
	var nodes []Node
	prevDepth := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, &MalformedStructureError{Line: line}
		}

		n := Node{
			Offset:    atoi(m[1]),
			Depth:     atoi(m[2]),
			HeaderLen: atoi(m[3]),
			Length:    atoi(m[4]),
			Class:     m[5],
			Label:     strings.TrimSpace(m[6]),
			Value:     strings.TrimSpace(m[7]),
		}

		// A node can only descend one level at a time in pre-order.
		if prevDepth >= 0 && n.Depth > prevDepth+1 {
			return nil, &MalformedStructureError{Line: line}
		}
		prevDepth = n.Depth

		nodes = append(nodes, n)
	}
	return nodes, nil
}

// atoi converts digits already matched by \d+; failure is impossible.
func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

// Parser invokes the external ASN.1 dump tool and re-parses its output.
// Parsing is pure given the input buffer; the only side effect is the tool
// invocation itself.
type Parser struct {
	openssl string
	runner  toolrun.Runner
	logger  logging.Logger
}

// NewParser creates a Parser using the dump tool configured in cfg.
func NewParser(cfg *config.Config, runner toolrun.Runner, logger logging.Logger) *Parser {
	return &Parser{
		openssl: cfg.OpenSSL,
		runner:  runner,
		logger:  logging.EnsureLogger(logger),
	}
}

// Parse feeds der to the dump tool and returns the structural node sequence.
func (p *Parser) Parse(ctx context.Context, der []byte) ([]Node, error) {
	res, err := p.runner.Run(ctx, toolrun.Command{
		Path:  p.openssl,
		Args:  []string{"asn1parse", "-inform", "der"},
		Stdin: der,
	})
	if err != nil {
		return nil, &MalformedStructureError{Cause: err}
	}

	lines := strings.Split(string(res.Stdout), "\n")
	nodes, err := ParseLines(lines)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("parsed %d ASN.1 nodes from %d DER bytes", len(nodes), len(der))
	return nodes, nil
}
