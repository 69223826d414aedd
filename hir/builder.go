package hir

import "github.com/xyproto/lirjit/heap"

// Add appends a new instruction of any kind to the block
func (b *Block) Add(kind Kind, args ...Value) *Instruction {
	g := b.graph
	i := &Instruction{id: g.nextID, kind: kind, block: b, Args: args}
	g.nextID++
	b.instr = append(b.instr, i)
	return i
}

// At sets the source position of an instruction
func (i *Instruction) At(pos int) *Instruction {
	i.Pos = heap.SourcePosition(pos)
	return i
}

func (b *Block) Nop() *Instruction   { return b.Add(Nop) }
func (b *Block) Entry() *Instruction { return b.Add(Entry) }

func (b *Block) Return(v Value) *Instruction { return b.Add(Return, v) }

// Goto jumps to target, adding the control flow edge
func (b *Block) Goto(target *Block) *Instruction {
	i := b.Add(Goto)
	i.Target = target
	b.addEdge(target)
	return i
}

// Branch jumps to t when cond coerces to true, to f otherwise
func (b *Block) Branch(cond Value, t, f *Block) *Instruction {
	i := b.Add(BranchBool, cond)
	i.True, i.False = t, f
	b.addEdge(t)
	b.addEdge(f)
	return i
}

func (b *Block) StoreLocal(v Value) *Instruction { return b.Add(StoreLocal, v) }

func (b *Block) StoreContext(v Value, depth, index int) *Instruction {
	i := b.Add(StoreContext, v)
	i.Depth, i.Index = depth, index
	return i
}

func (b *Block) LoadContext(depth, index int) *Instruction {
	i := b.Add(LoadContext)
	i.Depth, i.Index = depth, index
	return i
}

func (b *Block) StoreProperty(obj, key, value Value) *Instruction {
	return b.Add(StoreProperty, obj, key, value)
}

func (b *Block) LoadRoot() *Instruction { return b.Add(LoadRoot) }

func (b *Block) LoadProperty(obj, key Value) *Instruction { return b.Add(LoadProperty, obj, key) }

func (b *Block) DeleteProperty(obj, key Value) *Instruction {
	return b.Add(DeleteProperty, obj, key)
}

func (b *Block) BinOp(op BinOp, lhs, rhs Value) *Instruction {
	i := b.Add(BinOpKind, lhs, rhs)
	i.Op = op
	return i
}

// Call calls fn with args; Args[0] is the callee
func (b *Block) Call(fn Value, args ...Value) *Instruction {
	return b.Add(Call, append([]Value{fn}, args...)...)
}

func (b *Block) Typeof(v Value) *Instruction      { return b.Add(Typeof, v) }
func (b *Block) Sizeof(v Value) *Instruction      { return b.Add(Sizeof, v) }
func (b *Block) Keysof(v Value) *Instruction      { return b.Add(Keysof, v) }
func (b *Block) Not(v Value) *Instruction         { return b.Add(Not, v) }
func (b *Block) CloneObject(v Value) *Instruction { return b.Add(CloneObject, v) }
func (b *Block) CollectGarbage() *Instruction     { return b.Add(CollectGarbage) }
func (b *Block) GetStackTrace() *Instruction      { return b.Add(GetStackTrace) }

// AllocateObject allocates an empty object or array literal
func (b *Block) AllocateObject(isArray bool, capacity int) *Instruction {
	i := b.Add(AllocateObject)
	i.IsArray, i.Capacity = isArray, capacity
	return i
}

// AllocateFunction creates a closure over the current context whose code
// starts at body, which must be a function entry block
func (b *Block) AllocateFunction(body *Block, argc int) *Instruction {
	i := b.Add(AllocateFunction)
	i.Body, i.Argc = body, argc
	return i
}

// ParallelMove performs all moves at once
func (b *Block) ParallelMove(moves ...Move) *Instruction {
	i := b.Add(ParallelMove)
	i.Moves = moves
	return i
}
