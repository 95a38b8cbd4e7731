package michelson

// nameScript concatenates a first and a last name into its storage.
const nameScript = `parameter (pair (string %firstname) (string %lastname));
storage string;
code {
       CAR;
       DUP;
       PUSH string " ";
       SWAP;
       CAR;
       CONCAT;
       DIP { CDR };
       CONCAT;
       NIL operation; PAIR;
     };`

const nameScriptJSON = `[
	{"prim":"parameter","args":[{"prim":"pair","args":[{"prim":"string","annots":["%firstname"]},{"prim":"string","annots":["%lastname"]}]}]},
	{"prim":"storage","args":[{"prim":"string"}]},
	{"prim":"code","args":[[
		{"prim":"CAR"},
		{"prim":"DUP"},
		{"prim":"PUSH","args":[{"prim":"string"},{"string":" "}]},
		{"prim":"SWAP"},
		{"prim":"CAR"},
		{"prim":"CONCAT"},
		{"prim":"DIP","args":[[{"prim":"CDR"}]]},
		{"prim":"CONCAT"},
		{"prim":"NIL","args":[{"prim":"operation"}]},
		{"prim":"PAIR"}
	]]}
]`

// counterScript keeps a counter with a TZIP-16 metadata big map and an on-chain view.
const counterScript = `{
  parameter (or (nat %increment) (or (nat %decrement) (unit %reset)));
  storage (pair (big_map %metadata string bytes) (nat %counter));
  code { UNPAIR ;
         IF_LEFT
           { DIP { UNPAIR } ; ADD ; SWAP ; PAIR }
           { IF_LEFT
               { DIP { UNPAIR } ; SWAP ; SUB ; ABS ; SWAP ; PAIR }
               { DROP ; CAR ; PUSH nat 0 ; SWAP ; PAIR } } ;
         NIL operation ;
         PAIR } ;
  view "get" unit nat { CDR ; CDR } ; # current counter
  /* views may be declared
     after the code */
}`
