// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package ast defines the abstract syntax tree for the SystemVerilog subset
// accepted by the simulator. Nodes are plain tagged structs; every consumer
// switches exhaustively on the kind fields.
//
package ast

import "strconv"

// A Pos is a position in a source file.
//
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	return p.File + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// Expressions

type ExprKind int

const (
	ExprIdent ExprKind = iota
	ExprNumber
	ExprString
	ExprUnary
	ExprBinary
	ExprTernary
	ExprConcat
	ExprReplicate
	ExprBitSelect
)

type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryLogNot
	UnaryBitNot
)

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod

	OpBitAnd
	OpBitOr
	OpBitXor

	OpLogAnd
	OpLogOr

	OpEq
	OpNeq
	OpCaseEq
	OpCaseNeq
	OpLt
	OpGt
	OpLe
	OpGe

	OpShl
	OpShr
	OpAshl
	OpAshr

	// OpAssign only appears in genvar loop headers (i = 0, i = i + 1).
	OpAssign
)

// An Expr is an expression node. Only the fields relevant to Kind are set.
// A bit select e[i] uses LHS for the base and RHS for the index.
//
type Expr struct {
	Pos  Pos
	Kind ExprKind

	Ident   string // ExprIdent
	Literal string // ExprNumber, ExprString

	UnOp    UnaryOp // ExprUnary
	Operand *Expr

	BinOp    BinaryOp // ExprBinary, ExprBitSelect
	LHS, RHS *Expr

	Cond, Then, Else *Expr // ExprTernary

	Elems []*Expr // ExprConcat

	RepCount *Expr   // ExprReplicate
	RepElems []*Expr // ExprReplicate
}

// Statements

type StmtKind int

const (
	StmtNull StmtKind = iota
	StmtBlock
	StmtIf
	StmtCase
	StmtBlocking
	StmtNonBlocking
	StmtDelay
	StmtExpr
)

type CaseKind int

const (
	CaseNormal CaseKind = iota
	CaseZ
	CaseX
)

// A CaseItem holds one case alternative. An empty Matches list marks the
// default alternative.
//
type CaseItem struct {
	Matches []*Expr
	Body    *Stmt
}

// A Stmt is a statement node. Only the fields relevant to Kind are set.
//
type Stmt struct {
	Pos  Pos
	Kind StmtKind

	Label string  // StmtBlock
	Block []*Stmt // StmtBlock

	Cond       *Expr // StmtIf
	Then, Else *Stmt

	CaseKind  CaseKind // StmtCase
	CaseExpr  *Expr
	CaseItems []CaseItem

	LHS, RHS *Expr // StmtBlocking, StmtNonBlocking

	DelayExpr *Expr // StmtDelay
	DelayBody *Stmt

	Expr *Expr // StmtExpr, e.g. $finish
}

// Types, ports, declarations

type Direction int

const (
	Input Direction = iota
	Output
	Inout
)

type DataTypeKind int

const (
	TypeUnknown DataTypeKind = iota
	TypeLogic
	TypeWire
	TypeReg
	TypeInteger
)

// A DataType is a net or variable type with an optional packed range.
//
type DataType struct {
	Kind   DataTypeKind
	Packed bool
	MSB    int
	LSB    int
}

// Width returns the bit width implied by t: the packed range size, or 1 for
// scalars.
//
func (t DataType) Width() int {
	if t.Packed && t.MSB >= 0 && t.LSB >= 0 {
		if t.MSB >= t.LSB {
			return t.MSB - t.LSB + 1
		}
		return t.LSB - t.MSB + 1
	}
	return 1
}

type Port struct {
	Pos  Pos
	Dir  Direction
	Type DataType
	Name string
}

type NetDecl struct {
	Pos  Pos
	Type DataType
	Name string
	Init *Expr
}

type VarDecl struct {
	Pos  Pos
	Type DataType
	Name string
	Init *Expr
}

type ParamDecl struct {
	Pos   Pos
	Name  string
	Value *Expr
	Local bool // localparam
}

type ContAssign struct {
	Pos Pos
	LHS *Expr
	RHS *Expr
}

// Always and initial constructs

type AlwaysKind int

const (
	AlwaysPlain AlwaysKind = iota
	AlwaysFF
	AlwaysComb
	AlwaysLatch
)

// A SensItem is one entry of an event control list. Star marks @* and @(*).
//
type SensItem struct {
	Posedge bool
	Negedge bool
	Star    bool
	Expr    *Expr
}

type Always struct {
	Pos         Pos
	Kind        AlwaysKind
	HasControl  bool // an @(...) or @* control was written
	Sensitivity []SensItem
	Body        *Stmt
}

type Initial struct {
	Pos  Pos
	Body *Stmt
}

// Instances

type ParamOverride struct {
	Name  string
	Value *Expr
}

// A PortConn is a named port connection. An empty Port marks a positional
// connection.
//
type PortConn struct {
	Port string
	Expr *Expr
}

type Instance struct {
	Pos            Pos
	Module         string
	Name           string
	ParamOverrides []ParamOverride
	PortConns      []PortConn
}

// Generate constructs

type GenItemKind int

const (
	GenBlock GenItemKind = iota
	GenIf
	GenFor
	GenCase
)

// A GenCaseItem holds one generate-case alternative. An empty Matches list
// marks the default alternative.
//
type GenCaseItem struct {
	Matches []*Expr
	Body    *GenItem
}

// A GenItem is a generate construct. Only the fields relevant to Kind are
// set. A for item holds the restricted header i = C0; i < C1; i = i + C2 as
// three expressions.
//
type GenItem struct {
	Pos  Pos
	Kind GenItemKind

	Label string        // GenBlock
	Items []*ModuleItem // GenBlock

	Cond       *Expr // GenIf
	Then, Else *GenItem

	Genvar  string // GenFor
	ForInit *Expr
	ForCond *Expr
	ForStep *Expr
	ForBody *GenItem

	CaseExpr  *Expr // GenCase
	CaseItems []GenCaseItem
}

// Module items

type ItemKind int

const (
	ItemNet ItemKind = iota
	ItemVar
	ItemParam
	ItemAssign
	ItemAlways
	ItemInitial
	ItemInstance
	ItemGenerate
	ItemGenvar
)

// A ModuleItem is one item of a module body. Only the field matching Kind
// is set.
//
type ModuleItem struct {
	Pos  Pos
	Kind ItemKind

	Net     *NetDecl
	Var     *VarDecl
	Param   *ParamDecl
	Assign  *ContAssign
	Always  *Always
	Initial *Initial
	Inst    *Instance
	Gen     *GenItem
	Genvar  string // ItemGenvar
}

// A Module is a module declaration.
//
type Module struct {
	Pos    Pos
	Name   string
	Params []*ParamDecl
	Ports  []*Port
	Items  []*ModuleItem
}

// A Design is the root of a parsed source file.
//
type Design struct {
	Modules []*Module
}

// FindModule returns the module named name, or nil.
//
func (d *Design) FindModule(name string) *Module {
	for _, m := range d.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}
