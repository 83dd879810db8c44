/*
Package dsl provides Go builders for workflow documents.

The fluent Builder constructs a document state by state, which is handy in
tests and for generating documents from code:

	b := dsl.New("sandwich")

	b.State("start").Start().
		Go("start-to-bread", "bread").
		When(dsl.Always()).
		Say("Put a piece of bread on the table.")

	b.State("bread").
		Process(detector).
		Go("bread-to-ham", "ham").
		When(dsl.HasObjectClass("bread")).
		Say("Now put ham on the bread.")

	b.State("ham").Terminal()

	sm, err := b.Build()

FromInstructionList builds the linear chain used when a workflow is written
as one instruction per line:

	sm, err := dsl.FromInstructionList(dsl.ParseInstructionText(text))
*/
package dsl
